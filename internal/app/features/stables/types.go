// internal/app/features/stables/types.go
package stables

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/policy/stablepolicy"
	"github.com/paddockops/equihub/internal/app/system/htmlsanitize"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type stableDetail struct {
	models.Stable
	MemberCount   int64            `json:"member_count"`
	ProcessCounts map[string]int64 `json:"process_counts"`
}

type listResponse struct {
	Stables []models.Stable `json:"stables"`
}

// memberEntry joins the membership row with user display fields.
type memberEntry struct {
	UserID   primitive.ObjectID `json:"user_id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

type membersResponse struct {
	Members []memberEntry `json:"members"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.BadRequest(w, "Request body must be valid JSON.")
		return false
	}
	return true
}

// stableID parses the {stableID} URL parameter. Malformed IDs surface
// as not-found.
func stableID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "stableID"))
	if err != nil {
		apierrors.NotFound(w, "Stable not found.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// loadStable fetches the stable or writes a 404.
func (h *Handler) loadStable(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (models.Stable, bool) {
	st, err := h.stables.GetByID(r.Context(), id)
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

// requireManage checks management permission for the stable. Denied
// callers get not-found.
func (h *Handler) requireManage(w http.ResponseWriter, r *http.Request, st models.Stable) bool {
	ok, err := stablepolicy.CanManageStable(r.Context(), h.DB, r, st.ID, st.OrganizationID)
	if err != nil {
		h.Errors.LogServerError(w, r, "stable manage check", err)
		return false
	}
	if !ok {
		apierrors.NotFound(w, "Stable not found.")
		return false
	}
	return true
}

// requireView checks view access for the stable. Denied callers get
// not-found.
func (h *Handler) requireView(w http.ResponseWriter, r *http.Request, st models.Stable) bool {
	ok, err := stablepolicy.CanViewStable(r.Context(), h.DB, r, st.ID, st.OrganizationID)
	if err != nil {
		h.Errors.LogServerError(w, r, "stable view check", err)
		return false
	}
	if !ok {
		apierrors.NotFound(w, "Stable not found.")
		return false
	}
	return true
}

func sanitizeName(s string) string {
	return htmlsanitize.Strip(s)
}

func sanitizeDescription(s string) string {
	return htmlsanitize.Sanitize(s)
}
