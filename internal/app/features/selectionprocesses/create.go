// internal/app/features/selectionprocesses/create.go
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
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCreate creates a new process in draft. The member order is
// computed by the requested algorithm and frozen into turns; the
// one-active-per-stable guard is checked by the store.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stableID, err := primitive.ObjectIDFromHex(req.StableID)
	if err != nil {
		apierrors.BadRequest(w, "stable_id is not a valid id.")
		return
	}

	name := sanitizeName(req.Name)
	var problems []string
	if name == "" {
		problems = append(problems, "name is required")
	}
	if !models.ValidAlgorithm(req.Algorithm) {
		problems = append(problems, "algorithm must be one of manual, rotation, quota_based")
	}
	problems = append(problems, validatePeriod(req.SelectionStartDate, req.SelectionEndDate)...)
	if len(req.MemberOrder) == 0 {
		problems = append(problems, "member_order must not be empty")
	}
	ids, idProblems := parseMemberOrder(req.MemberOrder)
	problems = append(problems, idProblems...)
	if len(problems) > 0 {
		apierrors.BadRequest(w, "Invalid selection process.", problems...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgID, ok := h.gateStable(ctx, w, r, stableID)
	if !ok {
		return
	}
	if !h.requireManage(ctx, w, r, stableID, orgID) {
		return
	}

	members, details, err := h.resolveMembers(ctx, stableID, ids)
	if err != nil {
		if errors.Is(err, errUnknownMembers) {
			apierrors.BadRequest(w, "Some users are not members of this stable.", details...)
			return
		}
		h.Errors.LogServerError(w, r, "resolve members", err)
		return
	}

	result, err := h.engine.ComputeOrder(ctx, stableID, req.Algorithm, members, req.SelectionStartDate, req.SelectionEndDate)
	if err != nil {
		switch {
		case errors.Is(err, turnorder.ErrNoMembers), errors.Is(err, turnorder.ErrInvalidPeriod), errors.Is(err, turnorder.ErrBadAlgorithm):
			apierrors.BadRequest(w, err.Error())
		default:
			h.Errors.LogServerError(w, r, "compute turn order", err)
		}
		return
	}

	now := time.Now().UTC()
	p := &models.SelectionProcess{
		ID:                   primitive.NewObjectID(),
		OrganizationID:       orgID,
		StableID:             stableID,
		Name:                 name,
		Description:          sanitizeDescription(req.Description),
		SelectionStartDate:   req.SelectionStartDate,
		SelectionEndDate:     req.SelectionEndDate,
		Algorithm:            req.Algorithm,
		QuotaPerMember:       result.QuotaPerMember,
		TotalAvailablePoints: result.TotalAvailablePoints,
		Turns:                buildTurns(result.MemberOrder),
		CurrentTurnIndex:     -1,
		Status:               models.ProcessDraft,
		CreatedAt:            now,
		CreatedBy:            userID,
		UpdatedAt:            now,
		UpdatedBy:            userID,
	}

	if err := h.processes.Create(ctx, p); err != nil {
		if errors.Is(err, processstore.ErrOpenProcessExists) {
			apierrors.Conflict(w, "This stable already has a selection process in progress.")
			return
		}
		h.Errors.LogServerError(w, r, "create selection process", err)
		return
	}

	h.Audit.ProcessEvent(ctx, r, audit.EventProcessCreated, userID, p, map[string]string{
		"name":      p.Name,
		"algorithm": p.Algorithm,
	})

	writeJSON(w, http.StatusCreated, p)
}
