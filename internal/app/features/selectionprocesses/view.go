// internal/app/features/selectionprocesses/view.go
package selectionprocesses

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
)

// HandleView returns one process with the caller's own turn context
// (position, status, and how many uncompleted turns are ahead).
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := processID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, ok := h.loadProcess(ctx, w, r, id)
	if !ok {
		return
	}
	orgID, ok := h.gateStable(ctx, w, r, p.StableID)
	if !ok {
		return
	}
	if !h.requireView(ctx, w, r, p.StableID, orgID) {
		return
	}

	writeJSON(w, http.StatusOK, processDetail{
		SelectionProcess: *p,
		UserTurn:         getUserTurnInfo(p, userID),
		IsUsersTurn:      p.IsUsersTurn(userID),
	})
}
