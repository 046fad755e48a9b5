// internal/app/features/stables/routes.go
package stables

import (
	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Route("/{stableID}", func(r chi.Router) {
		r.Get("/", h.HandleView)
		r.Delete("/", h.HandleDelete)
		r.Get("/members", h.HandleListMembers)
		r.Post("/members", h.HandleAddMember)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
	})

	return r
}
