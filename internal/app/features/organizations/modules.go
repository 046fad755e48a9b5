// internal/app/features/organizations/modules.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleSetModules replaces the organization's enabled subscription
// modules. Admin only. The caller edits their own organization, so a
// role failure is disclosed as forbidden rather than masked.
func (h *Handler) HandleSetModules(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		apierrors.NotFound(w, "Organization not found.")
		return
	}
	if !authz.IsAdmin(r) {
		apierrors.Forbidden(w, "Administrator access is required to change modules.")
		return
	}

	var req modulesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	keys, bad := normalizeModules(req.Modules)
	if len(bad) > 0 {
		apierrors.BadRequest(w, "Module list is invalid.", bad...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.orgs.SetModules(ctx, orgID, keys); err != nil {
		h.Errors.LogServerError(w, r, "set modules", err)
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventOrgModulesChanged, userID, &orgID, map[string]string{
		"modules": strings.Join(keys, ","),
	})

	org, err := h.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.NotFound(w, "Organization not found.")
			return
		}
		h.Errors.LogServerError(w, r, "load organization", err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}
