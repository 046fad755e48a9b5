// internal/app/features/stables/view.go
package stables

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/system/timeouts"
)

// HandleView returns the stable with its member count and per-status
// selection-process counts.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, ok := stableID(w, r)
	if !ok {
		return
	}
	st, ok := h.loadStable(w, r, id)
	if !ok {
		return
	}
	if !h.requireView(w, r, st) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberCount, err := h.memberships.CountByStable(ctx, st.ID, "")
	if err != nil {
		h.Errors.LogServerError(w, r, "count stable members", err)
		return
	}
	processCounts, err := h.processes.CountByStatus(ctx, st.ID)
	if err != nil {
		h.Errors.LogServerError(w, r, "count stable processes", err)
		return
	}

	writeJSON(w, http.StatusOK, stableDetail{
		Stable:        st,
		MemberCount:   memberCount,
		ProcessCounts: processCounts,
	})
}
