// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/auth"
)

// Handler answers "who am I" for the signed-in session.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type sessionResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// HandleSession processes GET /api/session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(sessionResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	})
}
