// internal/app/features/auditlog/types.go
package auditlog

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// entry is the wire shape of one audit event. ObjectIDs are rendered as
// hex strings; absent IDs are omitted.
type entry struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Category       string            `json:"category"`
	EventType      string            `json:"event_type"`
	OrganizationID string            `json:"organization_id,omitempty"`
	StableID       string            `json:"stable_id,omitempty"`
	ProcessID      string            `json:"process_id,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	ActorID        string            `json:"actor_id,omitempty"`
	IP             string            `json:"ip,omitempty"`
	Success        bool              `json:"success"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events []entry `json:"events"`
	Total  int64   `json:"total"`
	Limit  int64   `json:"limit"`
	Offset int64   `json:"offset"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func toEntries(events []audit.Event) []entry {
	out := make([]entry, 0, len(events))
	for _, e := range events {
		out = append(out, entry{
			ID:             e.ID.Hex(),
			Timestamp:      e.Timestamp,
			Category:       e.Category,
			EventType:      e.EventType,
			OrganizationID: hexOrEmpty(e.OrganizationID),
			StableID:       hexOrEmpty(e.StableID),
			ProcessID:      hexOrEmpty(e.ProcessID),
			UserID:         hexOrEmpty(e.UserID),
			ActorID:        hexOrEmpty(e.ActorID),
			IP:             e.IP,
			Success:        e.Success,
			FailureReason:  e.FailureReason,
			Details:        e.Details,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		apierrors.NotFound(w, "Not found.")
		return primitive.NilObjectID, false
	}
	return id, true
}
