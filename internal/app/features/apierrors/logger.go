// internal/app/features/apierrors/logger.go
package apierrors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs server-side structured logging with the generic
// client-facing envelope, so handlers never leak storage errors.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger backed by the given zap logger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

// LogServerError logs the underlying error with request context and
// writes a generic 500 envelope.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	Internal(w)
}

// LogBadRequest logs a client error at warn level and writes a 400
// validation envelope with the given user-facing message.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	e.log.Warn(logMsg, fields...)
	BadRequest(w, userMsg)
}
