// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// HandleList returns audit events for the caller's organization, newest
// first. Admin only; everyone else sees not-found. Filters: category,
// event_type, process_id, stable_id, user_id, start, end (RFC3339),
// limit, offset.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, _, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}
	orgID := authz.UserOrgID(r)
	if !authz.IsAdmin(r) || orgID.IsZero() {
		apierrors.NotFound(w, "Not found.")
		return
	}

	filter := audit.QueryFilter{
		OrganizationID: &orgID,
		Category:       strings.TrimSpace(r.URL.Query().Get("category")),
		EventType:      strings.TrimSpace(r.URL.Query().Get("event_type")),
		Limit:          defaultPageSize,
	}

	for param, dst := range map[string]**primitive.ObjectID{
		"process_id": &filter.ProcessID,
		"stable_id":  &filter.StableID,
		"user_id":    &filter.UserID,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apierrors.BadRequest(w, param+" must be a valid ID.")
			return
		}
		*dst = &id
	}

	for param, dst := range map[string]**time.Time{
		"start": &filter.StartTime,
		"end":   &filter.EndTime,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(w, param+" must be an RFC 3339 timestamp.")
			return
		}
		*dst = &ts
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxPageSize {
			apierrors.BadRequest(w, "limit must be between 1 and 500.")
			return
		}
		filter.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			apierrors.BadRequest(w, "offset must be a non-negative integer.")
			return
		}
		filter.Offset = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.events.Query(ctx, filter)
	if err != nil {
		h.Errors.LogServerError(w, r, "query audit events", err)
		return
	}
	total, err := h.events.CountByFilter(ctx, filter)
	if err != nil {
		h.Errors.LogServerError(w, r, "count audit events", err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Events: toEntries(events),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// HandleListByProcess returns the audit trail for one selection process.
func (h *Handler) HandleListByProcess(w http.ResponseWriter, r *http.Request) {
	_, _, _, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}
	orgID := authz.UserOrgID(r)
	if !authz.IsAdmin(r) || orgID.IsZero() {
		apierrors.NotFound(w, "Not found.")
		return
	}
	processID, ok := pathID(w, r, "processID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.events.Query(ctx, audit.QueryFilter{
		OrganizationID: &orgID,
		ProcessID:      &processID,
		Limit:          defaultPageSize,
	})
	if err != nil {
		h.Errors.LogServerError(w, r, "query process audit events", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Events: toEntries(events), Total: int64(len(events)), Limit: defaultPageSize})
}
