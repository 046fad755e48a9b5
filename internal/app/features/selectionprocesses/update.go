// internal/app/features/selectionprocesses/update.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/app/system/turnorder"
	"github.com/paddockops/equihub/internal/domain/models"
)

// HandleUpdate mutates a draft process. Supplying member_order
// revalidates membership and fully rebuilds the turn array in the
// supplied order; quota figures are recomputed when the process is
// quota-based and members or dates changed.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := processID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if !decodeBody(w, r, &req) {
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

	if p.Status != models.ProcessDraft {
		apierrors.StateError(w, "Only draft processes can be updated.")
		return
	}

	if req.Name != nil {
		name := sanitizeName(*req.Name)
		if name == "" {
			apierrors.BadRequest(w, "name must not be empty.")
			return
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = sanitizeDescription(*req.Description)
	}

	start, end := p.SelectionStartDate, p.SelectionEndDate
	if req.SelectionStartDate != nil {
		start = *req.SelectionStartDate
	}
	if req.SelectionEndDate != nil {
		end = *req.SelectionEndDate
	}
	if problems := validatePeriod(start, end); len(problems) > 0 {
		apierrors.BadRequest(w, "Invalid selection period.", problems...)
		return
	}
	datesChanged := !start.Equal(p.SelectionStartDate) || !end.Equal(p.SelectionEndDate)
	p.SelectionStartDate, p.SelectionEndDate = start, end

	membersChanged := false
	if req.MemberOrder != nil {
		if len(*req.MemberOrder) == 0 {
			apierrors.BadRequest(w, "member_order must not be empty.")
			return
		}
		ids, problems := parseMemberOrder(*req.MemberOrder)
		if len(problems) > 0 {
			apierrors.BadRequest(w, "Invalid member_order.", problems...)
			return
		}
		members, details, err := h.resolveMembers(ctx, p.StableID, ids)
		if err != nil {
			if errors.Is(err, errUnknownMembers) {
				apierrors.BadRequest(w, "Some users are not members of this stable.", details...)
				return
			}
			h.Errors.LogServerError(w, r, "resolve members", err)
			return
		}
		// The supplied order is taken verbatim; this is the manual
		// reordering path regardless of the original algorithm.
		p.Turns = buildTurns(members)
		membersChanged = true
	}

	if p.Algorithm == models.AlgorithmQuotaBased && (datesChanged || membersChanged) {
		total, err := h.engine.SumPoints(ctx, p.StableID, p.SelectionStartDate, p.SelectionEndDate)
		if err != nil {
			h.Errors.LogServerError(w, r, "recompute quota", err)
			return
		}
		p.TotalAvailablePoints = total
		p.QuotaPerMember = turnorder.QuotaPerMember(total, len(p.Turns))
	}

	p.UpdatedBy = userID
	if err := h.processes.Replace(ctx, p); err != nil {
		h.Errors.LogServerError(w, r, "update selection process", err)
		return
	}

	h.Audit.ProcessEvent(ctx, r, audit.EventProcessUpdated, userID, p, nil)

	writeJSON(w, http.StatusOK, p)
}
