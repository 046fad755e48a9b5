// internal/app/features/routines/routines.go
package routines

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/policy/stablepolicy"
	"github.com/paddockops/equihub/internal/app/system/htmlsanitize"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Listings default to the coming month when no period is given.
const defaultListWindow = 30 * 24 * time.Hour

type createRequest struct {
	StableID    string    `json:"stable_id"`
	Name        string    `json:"name"`
	Points      float64   `json:"points"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type listResponse struct {
	Routines []models.RoutineInstance `json:"routines"`
}

// HandleList returns a stable's routine instances inside [start, end),
// both RFC 3339 query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	stableID, err := primitive.ObjectIDFromHex(query.Get(r, "stable_id"))
	if err != nil {
		apierrors.BadRequest(w, "stable_id is required and must be a valid ID.")
		return
	}

	start := time.Now().UTC()
	end := start.Add(defaultListWindow)
	if raw := query.Get(r, "start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			apierrors.BadRequest(w, "start must be an RFC 3339 timestamp.")
			return
		}
	}
	if raw := query.Get(r, "end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			apierrors.BadRequest(w, "end must be an RFC 3339 timestamp.")
			return
		}
	}
	if !start.Before(end) {
		apierrors.BadRequest(w, "start must be before end.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, ok := h.loadStable(ctx, w, r, stableID)
	if !ok {
		return
	}
	if !h.allow(ctx, w, r, st, stablepolicy.CanViewStable) {
		return
	}

	instances, err := h.routines.ListByStable(ctx, st.ID, start, end)
	if err != nil {
		h.Errors.LogServerError(w, r, "list routine instances", err)
		return
	}
	if instances == nil {
		instances = []models.RoutineInstance{}
	}
	writeJSON(w, http.StatusOK, listResponse{Routines: instances})
}

// HandleCreate adds a routine instance to a stable. Managers and admins
// only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Request body must be valid JSON.")
		return
	}

	stableID, err := primitive.ObjectIDFromHex(req.StableID)
	if err != nil {
		apierrors.BadRequest(w, "stable_id is required and must be a valid ID.")
		return
	}
	name := htmlsanitize.Strip(req.Name)

	var problems []string
	if name == "" {
		problems = append(problems, "name is required")
	}
	if req.Points <= 0 {
		problems = append(problems, "points must be greater than zero")
	}
	if req.ScheduledAt.IsZero() {
		problems = append(problems, "scheduled_at is required")
	}
	if len(problems) > 0 {
		apierrors.BadRequest(w, "Routine instance is invalid.", problems...)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, ok := h.loadStable(ctx, w, r, stableID)
	if !ok {
		return
	}
	if !h.allow(ctx, w, r, st, stablepolicy.CanManageStable) {
		return
	}

	ri := models.RoutineInstance{
		StableID:    st.ID,
		Name:        name,
		Points:      req.Points,
		ScheduledAt: req.ScheduledAt.UTC(),
	}
	if err := h.routines.Create(ctx, &ri); err != nil {
		h.Errors.LogServerError(w, r, "create routine instance", err)
		return
	}
	writeJSON(w, http.StatusCreated, ri)
}

type policyCheck func(ctx context.Context, db *mongo.Database, r *http.Request, stableID, stableOrgID primitive.ObjectID) (bool, error)

func (h *Handler) allow(ctx context.Context, w http.ResponseWriter, r *http.Request, st models.Stable, check policyCheck) bool {
	ok, err := check(ctx, h.DB, r, st.ID, st.OrganizationID)
	if err != nil {
		h.Errors.LogServerError(w, r, "stable access check", err)
		return false
	}
	if !ok {
		apierrors.NotFound(w, "Stable not found.")
		return false
	}
	return true
}

func (h *Handler) loadStable(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (models.Stable, bool) {
	st, err := h.stables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.NotFound(w, "Stable not found.")
			return models.Stable{}, false
		}
		h.Errors.LogServerError(w, r, "load stable", err)
		return models.Stable{}, false
	}
	return st, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
