// internal/app/features/selectionprocesses/computeorder.go
package selectionprocesses

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/app/system/turnorder"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleComputeOrder previews the member order an algorithm would
// produce, without persisting anything. Management permission required,
// since this is a planning tool for whoever sets up the process.
func (h *Handler) HandleComputeOrder(w http.ResponseWriter, r *http.Request) {
	var req computeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stableID, err := primitive.ObjectIDFromHex(req.StableID)
	if err != nil {
		apierrors.BadRequest(w, "stable_id is not a valid id.")
		return
	}
	if !models.ValidAlgorithm(req.Algorithm) {
		apierrors.BadRequest(w, "algorithm must be one of manual, rotation, quota_based.")
		return
	}
	if problems := validatePeriod(req.SelectionStartDate, req.SelectionEndDate); len(problems) > 0 {
		apierrors.BadRequest(w, "Invalid selection period.", problems...)
		return
	}
	if len(req.MemberOrder) == 0 {
		apierrors.BadRequest(w, "member_order must not be empty.")
		return
	}
	ids, problems := parseMemberOrder(req.MemberOrder)
	if len(problems) > 0 {
		apierrors.BadRequest(w, "Invalid member_order.", problems...)
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

	ordered := make([]orderedMember, 0, len(result.MemberOrder))
	for _, m := range result.MemberOrder {
		ordered = append(ordered, orderedMember{UserID: m.UserID, UserName: m.Name})
	}

	writeJSON(w, http.StatusOK, computeOrderResponse{
		MemberOrder:          ordered,
		QuotaPerMember:       result.QuotaPerMember,
		TotalAvailablePoints: result.TotalAvailablePoints,
	})
}
