// internal/app/features/selectionprocesses/access.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/policy/stablepolicy"
	"github.com/paddockops/equihub/internal/app/system/modules"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// processID parses the {processID} URL parameter. A malformed ID cannot
// name a real document, so it is a validation error; only well-formed
// IDs that miss get the enumeration-resistant not-found answer.
func processID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "processID"))
	if err != nil {
		apierrors.BadRequest(w, "Invalid process ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// gateStable resolves the stable's organization and checks the module
// gate. A stable that does not resolve surfaces as not-found. The gate
// writes its own 403 when the module is missing.
func (h *Handler) gateStable(ctx context.Context, w http.ResponseWriter, r *http.Request, stableID primitive.ObjectID) (primitive.ObjectID, bool) {
	orgID, err := stablepolicy.ResolveOrgID(ctx, h.DB, stableID)
	if err != nil {
		h.Errors.LogServerError(w, r, "resolve stable org", err)
		return primitive.NilObjectID, false
	}
	if orgID.IsZero() {
		apierrors.NotFound(w, "Stable not found.")
		return primitive.NilObjectID, false
	}

	ok, err := modules.Require(ctx, h.DB, w, orgID, modules.SelectionProcesses)
	if err != nil {
		h.Errors.LogServerError(w, r, "module gate", err)
		return primitive.NilObjectID, false
	}
	if !ok {
		return primitive.NilObjectID, false
	}
	return orgID, true
}

// loadProcess fetches the process or writes a 404.
func (h *Handler) loadProcess(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (*models.SelectionProcess, bool) {
	p, err := h.processes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.NotFound(w, "Selection process not found.")
			return nil, false
		}
		h.Errors.LogServerError(w, r, "load selection process", err)
		return nil, false
	}
	return p, true
}

// requireManage checks stable-management permission. Denied callers get
// not-found, never forbidden, so process IDs cannot be probed.
func (h *Handler) requireManage(ctx context.Context, w http.ResponseWriter, r *http.Request, stableID, stableOrgID primitive.ObjectID) bool {
	ok, err := stablepolicy.CanManageStable(ctx, h.DB, r, stableID, stableOrgID)
	if err != nil {
		h.Errors.LogServerError(w, r, "stable manage check", err)
		return false
	}
	if !ok {
		apierrors.NotFound(w, "Selection process not found.")
		return false
	}
	return true
}

// requireView checks stable view access (management or active
// membership). Denied callers get not-found.
func (h *Handler) requireView(ctx context.Context, w http.ResponseWriter, r *http.Request, stableID, stableOrgID primitive.ObjectID) bool {
	ok, err := stablepolicy.CanViewStable(ctx, h.DB, r, stableID, stableOrgID)
	if err != nil {
		h.Errors.LogServerError(w, r, "stable view check", err)
		return false
	}
	if !ok {
		apierrors.NotFound(w, "Selection process not found.")
		return false
	}
	return true
}
