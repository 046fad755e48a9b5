// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleView returns the caller's own organization.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		apierrors.NotFound(w, "Organization not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

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
