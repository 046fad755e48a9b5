// internal/app/features/apierrors/apierrors.go

// Package apierrors defines the uniform JSON error envelope used by every
// API handler, plus write helpers for each error category.
//
// The envelope is:
//
//	{"error": "<category>", "message": "<human string>", "details": [...]}
//
// Access-denied on list/detail/admin paths is deliberately written as
// not-found so callers cannot enumerate process IDs they have no access
// to. Forbidden is disclosed only where the caller already knows the
// resource exists (complete-turn, module gate).
package apierrors

import (
	"encoding/json"
	"net/http"
)

// Error categories.
const (
	CategoryValidation   = "validation_error"
	CategoryConflict     = "conflict"
	CategoryState        = "state_error"
	CategoryForbidden    = "forbidden"
	CategoryNotFound     = "not_found"
	CategoryUnauthorized = "unauthorized"
	CategoryInternal     = "internal"
)

// Envelope is the wire shape of every error response.
type Envelope struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Write sends an error envelope with the given status code.
func Write(w http.ResponseWriter, status int, category, message string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: category, Message: message, Details: details})
}

// BadRequest writes a 400 validation error.
func BadRequest(w http.ResponseWriter, message string, details ...string) {
	Write(w, http.StatusBadRequest, CategoryValidation, message, details...)
}

// Conflict writes a 409 conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Write(w, http.StatusConflict, CategoryConflict, message)
}

// StateError writes a 400 illegal-state error.
func StateError(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, CategoryState, message)
}

// Forbidden writes a 403. Use only on paths that deliberately disclose
// the resource's existence.
func Forbidden(w http.ResponseWriter, message string) {
	Write(w, http.StatusForbidden, CategoryForbidden, message)
}

// NotFound writes a 404. Also used for access-denied-as-absence.
func NotFound(w http.ResponseWriter, message string) {
	Write(w, http.StatusNotFound, CategoryNotFound, message)
}

// Unauthorized writes a 401 for unauthenticated callers.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Sign in required."
	}
	Write(w, http.StatusUnauthorized, CategoryUnauthorized, message)
}

// Internal writes a generic 500. The real error is logged server-side
// by ErrorLogger; the caller only sees a generic message.
func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, CategoryInternal, "An internal error occurred.")
}
