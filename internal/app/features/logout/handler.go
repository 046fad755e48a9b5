// internal/app/features/logout/handler.go
package logout

import (
	"encoding/json"
	"net/http"

	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"github.com/paddockops/equihub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
}

func NewHandler(logger *zap.Logger, sm *auth.SessionManager, audit *auditlog.Logger) *Handler {
	return &Handler{Log: logger, SessionMgr: sm, Audit: audit}
}

// HandleLogout processes POST /api/logout. Always answers 200, even for
// anonymous callers, so the client can treat it as idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if id, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			h.Audit.Logout(r.Context(), r, id)
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"signed_out": true})
}
