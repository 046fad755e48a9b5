// internal/app/features/stables/delete.go
package stables

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete removes a stable and its memberships. Admin only. A
// stable with an active selection process cannot be deleted; cancel the
// process first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := stableID(w, r)
	if !ok {
		return
	}
	st, ok := h.loadStable(w, r, id)
	if !ok {
		return
	}
	if !authz.IsAdmin(r) || authz.UserOrgID(r) != st.OrganizationID {
		apierrors.NotFound(w, "Stable not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	active, err := h.processes.GetActiveForStable(ctx, st.ID)
	if err != nil {
		h.Errors.LogServerError(w, r, "check active process", err)
		return
	}
	if active != nil {
		apierrors.Conflict(w, "This stable has an active selection process. Cancel it before deleting the stable.")
		return
	}

	removed, err := h.memberships.DeleteByStable(ctx, st.ID)
	if err != nil {
		h.Errors.LogServerError(w, r, "delete stable memberships", err)
		return
	}
	if _, err := h.stables.Delete(ctx, st.ID); err != nil {
		h.Errors.LogServerError(w, r, "delete stable", err)
		return
	}

	h.Log.Info("stable deleted",
		zap.String("stable_id", st.ID.Hex()),
		zap.Int64("memberships_removed", removed))
	h.Audit.AdminEvent(ctx, r, audit.EventStableDeleted, userID, &st.OrganizationID, map[string]string{
		"stable_id": st.ID.Hex(),
		"name":      st.Name,
	})

	w.WriteHeader(http.StatusNoContent)
}
