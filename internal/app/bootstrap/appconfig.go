// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: equihub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Site identity, used in notification emails
	SiteName string

	// Email/SMTP configuration. Turn notifications are sent only when
	// MailEnabled is true; otherwise the no-op notifier is wired.
	MailEnabled  bool
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for relays that accept unauthenticated mail)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@equihub.example)
	MailFromName string // From display name (e.g., EquiHub)

	// Audit logging settings
	AuditLogAuth      string // Auth event logging: 'all' (db+log), 'db', 'log', or 'off'
	AuditLogAdmin     string // Admin event logging
	AuditLogSelection string // Selection-process event logging

	// Audit retention worker
	AuditRetention     time.Duration // how long audit events are kept
	AuditPruneInterval time.Duration // how often the retention worker prunes
}
