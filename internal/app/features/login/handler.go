// internal/app/features/login/handler.go
package login

import (
	"time"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	loginstore "github.com/paddockops/equihub/internal/app/store/logins"
	userstore "github.com/paddockops/equihub/internal/app/store/users"
	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"github.com/paddockops/equihub/internal/app/system/auth"
	"github.com/paddockops/equihub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the email+password sign-in endpoint.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Errors     *apierrors.ErrorLogger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger

	users   *userstore.Store
	logins  *loginstore.Store
	limiter *ratelimit.LoginLimiter
}

// Sign-in attempts are limited per client IP and per account email.
// The IP window is generous enough for fat-fingered passwords and
// tight enough to blunt credential stuffing; the email window catches
// attacks spread over many IPs.
const (
	loginIPLimit     = 10
	loginIPWindow    = 5 * time.Minute
	loginEmailLimit  = 5
	loginEmailWindow = 15 * time.Minute
)

func NewHandler(db *mongo.Database, logger *zap.Logger, sm *auth.SessionManager, audit *auditlog.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Errors:     apierrors.NewErrorLogger(logger),
		SessionMgr: sm,
		Audit:      audit,
		users:      userstore.New(db),
		logins:     loginstore.New(db),
		limiter:    ratelimit.NewLoginLimiter(loginIPLimit, loginIPWindow, loginEmailLimit, loginEmailWindow),
	}
}
