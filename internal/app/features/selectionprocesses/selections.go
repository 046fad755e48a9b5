// internal/app/features/selectionprocesses/selections.go
package selectionprocesses

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
)

type selectionsResponse struct {
	Selections []models.Selection `json:"selections"`
}

// HandleListSelections lists the selection entries recorded under a
// process. The entries are written by the routine booking subsystem;
// this endpoint is a passthrough read.
func (h *Handler) HandleListSelections(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
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
	if !h.requireView(ctx, w, r, p.StableID, orgID) {
		return
	}

	selections, err := h.selections.ListByProcess(ctx, id)
	if err != nil {
		h.Errors.LogServerError(w, r, "list selections", err)
		return
	}
	if selections == nil {
		selections = []models.Selection{}
	}

	writeJSON(w, http.StatusOK, selectionsResponse{Selections: selections})
}
