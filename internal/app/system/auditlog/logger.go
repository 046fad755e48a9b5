// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin events (org/stable/membership changes).
	Admin string
	// Selection controls logging for selection-process lifecycle events.
	Selection string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.StableID != nil {
		fields = append(fields, zap.String("stable_id", event.StableID.Hex()))
	}
	if event.ProcessID != nil {
		fields = append(fields, zap.String("process_id", event.ProcessID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategorySelection:
		setting = l.config.Selection
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, orgID *primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAuth,
		EventType:      audit.EventLoginSuccess,
		UserID:         &userID,
		OrganizationID: orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details:        map[string]string{"email": email},
	})
}

// LoginFailed logs a failed login attempt with the given event type and
// reason. userID may be nil when the account was not found.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Selection Process Events ---

// ProcessEvent logs a selection-process lifecycle event performed by
// actorID on the given process.
func (l *Logger) ProcessEvent(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, p *models.SelectionProcess, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategorySelection,
		EventType:      eventType,
		ActorID:        &actorID,
		OrganizationID: &p.OrganizationID,
		StableID:       &p.StableID,
		ProcessID:      &p.ID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details:        details,
	})
}

// TurnCompleted logs one member's turn completion within a process.
func (l *Logger) TurnCompleted(ctx context.Context, r *http.Request, actorID, turnUserID primitive.ObjectID, p *models.SelectionProcess, turnOrder int) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategorySelection,
		EventType:      audit.EventTurnCompleted,
		ActorID:        &actorID,
		UserID:         &turnUserID,
		OrganizationID: &p.OrganizationID,
		StableID:       &p.StableID,
		ProcessID:      &p.ID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"turn_order": strconv.Itoa(turnOrder),
		},
	})
}

// --- Admin Events ---

// AdminEvent logs an org/stable/membership change performed by actorID.
func (l *Logger) AdminEvent(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, orgID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      eventType,
		ActorID:        &actorID,
		OrganizationID: orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details:        details,
	})
}
