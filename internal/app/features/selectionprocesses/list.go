// internal/app/features/selectionprocesses/list.go
package selectionprocesses

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// HandleList returns process summaries for a stable, optionally filtered
// by status. Viewable by managers and active members of the stable.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	stableHex := query.Get(r, "stable_id")
	if stableHex == "" {
		apierrors.BadRequest(w, "stable_id is required.")
		return
	}
	stableID, err := primitive.ObjectIDFromHex(stableHex)
	if err != nil {
		apierrors.BadRequest(w, "stable_id is not a valid id.")
		return
	}

	statusFilter := query.Get(r, "status")
	switch statusFilter {
	case "", models.ProcessDraft, models.ProcessActive, models.ProcessCompleted, models.ProcessCancelled:
	default:
		apierrors.BadRequest(w, "status must be one of draft, active, completed, cancelled.")
		return
	}

	limit := parseBounded(query.Get(r, "limit"), defaultListLimit, maxListLimit)
	if limit == 0 {
		limit = defaultListLimit
	}
	offset := parseBounded(query.Get(r, "offset"), 0, 1<<31)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgID, ok := h.gateStable(ctx, w, r, stableID)
	if !ok {
		return
	}
	if !h.requireView(ctx, w, r, stableID, orgID) {
		return
	}

	processes, total, err := h.processes.ListByStable(ctx, stableID, statusFilter, limit, offset)
	if err != nil {
		h.Errors.LogServerError(w, r, "list selection processes", err)
		return
	}

	summaries := make([]processSummary, 0, len(processes))
	for _, p := range processes {
		summaries = append(summaries, processSummary{
			ID:                 p.ID,
			StableID:           p.StableID,
			Name:               p.Name,
			Algorithm:          p.Algorithm,
			Status:             p.Status,
			SelectionStartDate: p.SelectionStartDate,
			SelectionEndDate:   p.SelectionEndDate,
			TurnCount:          len(p.Turns),
			CurrentTurnIndex:   p.CurrentTurnIndex,
			CreatedAt:          p.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, listResponse{
		Processes: summaries,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// parseBounded parses a non-negative integer query value with a fallback
// and an upper bound.
func parseBounded(raw string, fallback, max int64) int64 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
