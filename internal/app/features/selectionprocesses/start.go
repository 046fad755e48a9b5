// internal/app/features/selectionprocesses/start.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/app/system/txn"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errNotDraft   = errors.New("process is not in draft")
	errEmptyTurns = errors.New("process has no turns")
)

// HandleStart transitions draft → active. The process is re-read inside
// the transaction so two concurrent starts cannot both succeed.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := processID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, ok := h.loadProcess(ctx, w, r, id)
	if !ok {
		return
	}
	orgID, ok := h.gateStable(ctx, w, r, p.StableID)
	if !ok {
		return
	}
	if !h.requireManage(ctx, w, r, p.StableID, orgID) {
		return
	}

	var started *models.SelectionProcess
	err := txn.WithTransaction(ctx, h.Client, h.Log, func(txCtx context.Context) error {
		cur, err := h.processes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.ProcessDraft {
			return errNotDraft
		}
		if len(cur.Turns) == 0 {
			return errEmptyTurns
		}

		now := time.Now().UTC()
		turns := make([]models.Turn, len(cur.Turns))
		for i, t := range cur.Turns {
			t.Status = models.TurnPending
			if i == 0 {
				t.Status = models.TurnActive
			}
			turns[i] = t
		}
		cur.Turns = turns
		cur.Status = models.ProcessActive
		cur.CurrentTurnIndex = 0
		cur.CurrentTurnUserID = &cur.Turns[0].UserID
		cur.StartedAt = &now
		cur.UpdatedBy = userID

		if err := h.processes.Replace(txCtx, cur); err != nil {
			return err
		}
		started = cur
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errNotDraft):
			apierrors.StateError(w, "Only draft processes can be started.")
		case errors.Is(err, errEmptyTurns):
			apierrors.StateError(w, "A process with no turns cannot be started.")
		case errors.Is(err, mongo.ErrNoDocuments):
			apierrors.NotFound(w, "Selection process not found.")
		default:
			h.Errors.LogServerError(w, r, "start selection process", err)
		}
		return
	}

	// Side effects only after the transition is durably committed.
	h.Notify.TurnStarted(ctx, started, started.Turns[0])
	h.Audit.ProcessEvent(ctx, r, audit.EventProcessStarted, userID, started, nil)

	writeJSON(w, http.StatusOK, started)
}
