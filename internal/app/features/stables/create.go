// internal/app/features/stables/create.go
package stables

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	stablestore "github.com/paddockops/equihub/internal/app/store/stables"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
)

// HandleCreate creates a stable in the caller's organization. Admin
// only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}
	if !authz.IsAdmin(r) {
		apierrors.NotFound(w, "Stable not found.")
		return
	}
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		apierrors.BadRequest(w, "Your account is not attached to an organization.")
		return
	}

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := sanitizeName(req.Name)
	if name == "" {
		apierrors.BadRequest(w, "Stable name is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.stables.Create(ctx, models.Stable{
		OrganizationID: orgID,
		Name:           name,
		Description:    sanitizeDescription(req.Description),
	})
	if err != nil {
		if errors.Is(err, stablestore.ErrDuplicateStableName) {
			apierrors.Conflict(w, "A stable with this name already exists.")
			return
		}
		h.Errors.LogServerError(w, r, "create stable", err)
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventStableCreated, userID, &orgID, map[string]string{
		"stable_id": st.ID.Hex(),
		"name":      st.Name,
	})

	writeJSON(w, http.StatusCreated, st)
}
