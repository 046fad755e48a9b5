// internal/app/features/routines/routes.go
package routines

import (
	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	return r
}
