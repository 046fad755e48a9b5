// internal/app/features/selectionprocesses/completeturn.go
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
	"go.uber.org/zap"
)

var (
	errNotActive   = errors.New("process is not active")
	errNotYourTurn = errors.New("caller does not hold the current turn")
)

// HandleCompleteTurn advances the process by one turn. This is the only
// mutation gated by identity rather than role: exactly the user holding
// the current turn may call it, and there is no admin override. The
// wrong-user case is a disclosed 403, since the caller already knows the
// process exists.
//
// The process is re-read inside the transaction, so of two concurrent
// calls by the same user one observes the already-advanced state and
// fails the your-turn precondition.
func (h *Handler) HandleCompleteTurn(w http.ResponseWriter, r *http.Request) {
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
	if !h.requireView(ctx, w, r, p.StableID, orgID) {
		return
	}

	var (
		after     *models.SelectionProcess
		completed bool
	)
	err := txn.WithTransaction(ctx, h.Client, h.Log, func(txCtx context.Context) error {
		cur, err := h.processes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.ProcessActive {
			return errNotActive
		}
		if !cur.IsUsersTurn(userID) {
			return errNotYourTurn
		}

		now := time.Now().UTC()
		idx := cur.CurrentTurnIndex
		last := idx >= len(cur.Turns)-1

		// Rewrite the whole turn array so "exactly one active turn"
		// holds by construction.
		turns := make([]models.Turn, len(cur.Turns))
		for i, t := range cur.Turns {
			switch {
			case i == idx:
				t.Status = models.TurnCompleted
				t.CompletedAt = &now
			case i == idx+1 && !last:
				t.Status = models.TurnActive
			}
			turns[i] = t
		}
		cur.Turns = turns

		if last {
			cur.Status = models.ProcessCompleted
			cur.CurrentTurnIndex = -1
			cur.CurrentTurnUserID = nil
			cur.CompletedAt = &now
		} else {
			cur.CurrentTurnIndex = idx + 1
			cur.CurrentTurnUserID = &cur.Turns[idx+1].UserID
		}
		cur.UpdatedBy = userID

		if err := h.processes.Replace(txCtx, cur); err != nil {
			return err
		}
		after = cur
		completed = last
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errNotActive):
			apierrors.StateError(w, "Turns can only be completed while the process is active.")
		case errors.Is(err, errNotYourTurn):
			apierrors.Forbidden(w, "It is not your turn.")
		case errors.Is(err, mongo.ErrNoDocuments):
			apierrors.NotFound(w, "Selection process not found.")
		default:
			h.Errors.LogServerError(w, r, "complete turn", err)
		}
		return
	}

	// Side effects after commit, all best-effort.
	if completed {
		if err := h.histories.Record(ctx, after, *after.CompletedAt); err != nil {
			h.Log.Warn("record selection history failed",
				zap.String("process_id", after.ID.Hex()),
				zap.Error(err))
		}
		h.Notify.ProcessCompleted(ctx, after)
	} else {
		h.Notify.TurnStarted(ctx, after, after.Turns[after.CurrentTurnIndex])
	}
	h.Audit.TurnCompleted(ctx, r, userID, userID, after, turnJustCompleted(after, completed))
	if completed {
		h.Audit.ProcessEvent(ctx, r, audit.EventProcessCompleted, userID, after, nil)
	}

	resp := completeTurnResponse{
		ProcessCompleted: completed,
		CurrentTurnIndex: after.CurrentTurnIndex,
	}
	if !completed {
		resp.NextTurnUserID = after.CurrentTurnUserID
	}
	writeJSON(w, http.StatusOK, resp)
}

// turnJustCompleted returns the order of the turn that was just marked
// completed.
func turnJustCompleted(p *models.SelectionProcess, completed bool) int {
	if completed {
		return len(p.Turns) - 1
	}
	return p.CurrentTurnIndex - 1
}
