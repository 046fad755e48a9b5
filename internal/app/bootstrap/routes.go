// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	auditlogfeature "github.com/paddockops/equihub/internal/app/features/auditlog"
	healthfeature "github.com/paddockops/equihub/internal/app/features/health"
	loginfeature "github.com/paddockops/equihub/internal/app/features/login"
	logoutfeature "github.com/paddockops/equihub/internal/app/features/logout"
	organizationsfeature "github.com/paddockops/equihub/internal/app/features/organizations"
	routinesfeature "github.com/paddockops/equihub/internal/app/features/routines"
	selectionprocessesfeature "github.com/paddockops/equihub/internal/app/features/selectionprocesses"
	stablesfeature "github.com/paddockops/equihub/internal/app/features/stables"
	userinfofeature "github.com/paddockops/equihub/internal/app/features/userinfo"
	"github.com/paddockops/equihub/internal/app/store/audit"
	stablestore "github.com/paddockops/equihub/internal/app/store/stables"
	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"github.com/paddockops/equihub/internal/app/system/auth"
	"github.com/paddockops/equihub/internal/app/system/mailer"
	"github.com/paddockops/equihub/internal/app/system/notify"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. EquiHub mounts a JSON API: tenant
// registration and login are public, everything else sits behind the
// session middleware.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.EquiHubMongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Audit logger shared by every feature that records events.
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admin:     appCfg.AuditLogAdmin,
		Selection: appCfg.AuditLogSelection,
	})

	notifier, err := buildNotifier(appCfg, db, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.EquiHubMongoClient, logger)
	r.Mount("/api/health", healthfeature.Routes(healthHandler))

	// Authentication and session info
	loginHandler := loginfeature.NewHandler(db, logger, sessionMgr, auditLogger)
	r.Mount("/api/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logger, sessionMgr, auditLogger)
	r.Mount("/api/logout", logoutfeature.Routes(logoutHandler))

	userinfoHandler := userinfofeature.NewHandler()
	r.Mount("/api/session", userinfofeature.Routes(userinfoHandler))

	// Tenant management
	orgHandler := organizationsfeature.NewHandler(db, logger, auditLogger)
	r.Mount("/api/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	// Stables and their rosters
	stablesHandler := stablesfeature.NewHandler(db, logger, auditLogger)
	r.Mount("/api/stables", stablesfeature.Routes(stablesHandler, sessionMgr))

	// Routine instances feeding the quota algorithm
	routinesHandler := routinesfeature.NewHandler(db, logger)
	r.Mount("/api/routines", routinesfeature.Routes(routinesHandler, sessionMgr))

	// Selection process workflow
	selHandler := selectionprocessesfeature.NewHandler(db, deps.EquiHubMongoClient, logger, auditLogger, notifier)
	r.Mount("/api/selection-processes", selectionprocessesfeature.Routes(selHandler, sessionMgr))

	// Audit trail (admin)
	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Mount("/api/audit-log", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// buildNotifier wires the mail notifier when SMTP is configured, and the
// no-op notifier otherwise. Selection operations never depend on mail
// being reachable.
func buildNotifier(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (notify.Notifier, error) {
	if !appCfg.MailEnabled {
		logger.Info("mail disabled, turn notifications are a no-op")
		return notify.Noop{}, nil
	}

	from := appCfg.MailFrom
	if appCfg.MailFromName != "" {
		from = fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom)
	}
	mail, err := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     from,
	})
	if err != nil {
		return nil, fmt.Errorf("build mailer: %w", err)
	}

	stables := stablestore.New(db)
	resolve := func(ctx context.Context, p *models.SelectionProcess) string {
		st, err := stables.GetByID(ctx, p.StableID)
		if err != nil {
			return ""
		}
		return st.Name
	}
	return notify.NewMailNotifier(mail, appCfg.SiteName, resolve, logger), nil
}
