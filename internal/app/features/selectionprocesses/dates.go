// internal/app/features/selectionprocesses/dates.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	processstore "github.com/paddockops/equihub/internal/app/store/selectionprocesses"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/app/system/turnorder"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleUpdateDates adjusts the selection period of an active process.
// Draft processes change dates through the regular update endpoint; on
// an active process this is the only field that may still move.
func (h *Handler) HandleUpdateDates(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := processID(w, r)
	if !ok {
		return
	}

	var req datesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	problems := validatePeriod(req.SelectionStartDate, req.SelectionEndDate)
	now := time.Now().UTC()
	if req.SelectionStartDate.Before(now) {
		problems = append(problems, "selection_start_date must not be in the past")
	}
	if req.SelectionEndDate.Before(now) {
		problems = append(problems, "selection_end_date must not be in the past")
	}
	if len(problems) > 0 {
		apierrors.BadRequest(w, "Invalid selection period.", problems...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
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

	if p.Status != models.ProcessActive {
		apierrors.StateError(w, "Dates can only be adjusted on an active process.")
		return
	}

	upd := processstore.PeriodUpdate{
		SelectionStartDate: req.SelectionStartDate,
		SelectionEndDate:   req.SelectionEndDate,
		Algorithm:          p.Algorithm,
		UpdatedBy:          userID,
	}
	if p.Algorithm == models.AlgorithmQuotaBased {
		total, err := h.engine.SumPoints(ctx, p.StableID, req.SelectionStartDate, req.SelectionEndDate)
		if err != nil {
			h.Errors.LogServerError(w, r, "recompute quota", err)
			return
		}
		upd.TotalAvailablePoints = total
		upd.QuotaPerMember = turnorder.QuotaPerMember(total, len(p.Turns))
	}

	// Field-level patch: a turn completed between the read above and
	// this write must survive, so the turn state is never rewritten
	// here. The store's status filter also catches a process that left
	// the active state in the meantime.
	if err := h.processes.UpdatePeriod(ctx, p.ID, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.StateError(w, "Dates can only be adjusted on an active process.")
			return
		}
		h.Errors.LogServerError(w, r, "update selection dates", err)
		return
	}

	after, err := h.processes.GetByID(ctx, p.ID)
	if err != nil {
		h.Errors.LogServerError(w, r, "reload selection process", err)
		return
	}

	h.Audit.ProcessEvent(ctx, r, audit.EventProcessUpdated, userID, after, map[string]string{
		"field": "selection_period",
	})

	writeJSON(w, http.StatusOK, after)
}
