// internal/app/features/stables/list.go
package stables

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
)

// HandleList returns the stables visible to the caller: an admin sees
// every stable in their organization, everyone else sees the stables
// they belong to.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		result []models.Stable
		err    error
	)
	if authz.IsAdmin(r) {
		orgID := authz.UserOrgID(r)
		if orgID.IsZero() {
			apierrors.BadRequest(w, "Your account is not attached to an organization.")
			return
		}
		result, err = h.stables.ListByOrg(ctx, orgID)
	} else {
		ids, idErr := h.memberships.StableIDsForUser(ctx, userID)
		if idErr != nil {
			h.Errors.LogServerError(w, r, "list stable memberships", idErr)
			return
		}
		result, err = h.stables.GetByIDs(ctx, ids)
	}
	if err != nil {
		h.Errors.LogServerError(w, r, "list stables", err)
		return
	}

	if result == nil {
		result = []models.Stable{}
	}
	writeJSON(w, http.StatusOK, listResponse{Stables: result})
}
