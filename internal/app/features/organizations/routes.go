// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/system/auth"
)

// Routes mounts the tenant surface. Registration is public; the rest
// requires a session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Get("/", h.HandleView)
		r.Put("/modules", h.HandleSetModules)
	})

	return r
}
