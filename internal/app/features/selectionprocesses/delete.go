// internal/app/features/selectionprocesses/delete.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/app/system/txn"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNotDeletable = errors.New("only draft or cancelled processes can be deleted")

// HandleDelete removes a draft or cancelled process together with its
// selections subcollection, atomically.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	err := txn.WithTransaction(ctx, h.Client, h.Log, func(txCtx context.Context) error {
		cur, err := h.processes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if cur.Status != models.ProcessDraft && cur.Status != models.ProcessCancelled {
			return errNotDeletable
		}
		if _, err := h.selections.DeleteByProcess(txCtx, id); err != nil {
			return err
		}
		return h.processes.Delete(txCtx, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, errNotDeletable):
			apierrors.StateError(w, "Only draft or cancelled processes can be deleted.")
		case errors.Is(err, mongo.ErrNoDocuments):
			apierrors.NotFound(w, "Selection process not found.")
		default:
			h.Errors.LogServerError(w, r, "delete selection process", err)
		}
		return
	}

	h.Audit.ProcessEvent(ctx, r, audit.EventProcessDeleted, userID, p, nil)

	w.WriteHeader(http.StatusNoContent)
}
