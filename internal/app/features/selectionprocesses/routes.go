// internal/app/features/selectionprocesses/routes.go
package selectionprocesses

import (
	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /selection-processes requires authentication.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST + CREATE
		pr.Get("/", h.HandleList)
		pr.Post("/", h.HandleCreate)

		// ORDER PREVIEW (no persistence)
		pr.Post("/compute-order", h.HandleComputeOrder)

		// VIEW / UPDATE / DELETE
		pr.Get("/{processID}", h.HandleView)
		pr.Put("/{processID}", h.HandleUpdate)
		pr.Delete("/{processID}", h.HandleDelete)

		// STATE TRANSITIONS
		pr.Post("/{processID}/start", h.HandleStart)
		pr.Post("/{processID}/complete-turn", h.HandleCompleteTurn)
		pr.Post("/{processID}/cancel", h.HandleCancel)
		pr.Patch("/{processID}/dates", h.HandleUpdateDates)

		// SELECTIONS SUBCOLLECTION
		pr.Get("/{processID}/selections", h.HandleListSelections)
	})

	return r
}
