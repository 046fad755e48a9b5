// internal/app/features/selectionprocesses/cancel.go
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

var errTerminal = errors.New("process is already in a terminal status")

// HandleCancel transitions draft or active → cancelled with a reason.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := processID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reason := sanitizeName(req.Reason)
	if reason == "" {
		apierrors.BadRequest(w, "reason is required.")
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

	var cancelled *models.SelectionProcess
	err := txn.WithTransaction(ctx, h.Client, h.Log, func(txCtx context.Context) error {
		cur, err := h.processes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.ProcessDraft && cur.Status != models.ProcessActive {
			return errTerminal
		}

		now := time.Now().UTC()
		cur.Status = models.ProcessCancelled
		cur.CurrentTurnIndex = -1
		cur.CurrentTurnUserID = nil
		cur.CancellationReason = reason
		cur.CancelledAt = &now
		cur.CancelledBy = &userID
		cur.UpdatedBy = userID

		if err := h.processes.Replace(txCtx, cur); err != nil {
			return err
		}
		cancelled = cur
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errTerminal):
			apierrors.StateError(w, "Completed or cancelled processes cannot be cancelled.")
		case errors.Is(err, mongo.ErrNoDocuments):
			apierrors.NotFound(w, "Selection process not found.")
		default:
			h.Errors.LogServerError(w, r, "cancel selection process", err)
		}
		return
	}

	h.Audit.ProcessEvent(ctx, r, audit.EventProcessCancelled, userID, cancelled, map[string]string{
		"reason": reason,
	})

	writeJSON(w, http.StatusOK, cancelled)
}
