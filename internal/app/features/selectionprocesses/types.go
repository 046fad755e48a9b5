// internal/app/features/selectionprocesses/types.go
package selectionprocesses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/system/htmlsanitize"
	"github.com/paddockops/equihub/internal/app/system/turnorder"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/* -------------------------------------------------------------------------- */
/* Request bodies                                                             */
/* -------------------------------------------------------------------------- */

type createRequest struct {
	StableID           string    `json:"stable_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	SelectionStartDate time.Time `json:"selection_start_date"`
	SelectionEndDate   time.Time `json:"selection_end_date"`
	Algorithm          string    `json:"algorithm"`
	MemberOrder        []string  `json:"member_order"`
}

type computeOrderRequest struct {
	StableID           string    `json:"stable_id"`
	Algorithm          string    `json:"algorithm"`
	MemberOrder        []string  `json:"member_order"`
	SelectionStartDate time.Time `json:"selection_start_date"`
	SelectionEndDate   time.Time `json:"selection_end_date"`
}

type updateRequest struct {
	Name               *string    `json:"name"`
	Description        *string    `json:"description"`
	SelectionStartDate *time.Time `json:"selection_start_date"`
	SelectionEndDate   *time.Time `json:"selection_end_date"`
	MemberOrder        *[]string  `json:"member_order"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type datesRequest struct {
	SelectionStartDate time.Time `json:"selection_start_date"`
	SelectionEndDate   time.Time `json:"selection_end_date"`
}

/* -------------------------------------------------------------------------- */
/* Response shapes                                                            */
/* -------------------------------------------------------------------------- */

// turnInfo is the caller's own position in the process, included on the
// detail endpoint for members.
type turnInfo struct {
	Order      int    `json:"order"`
	Status     string `json:"status"`
	TurnsAhead int    `json:"turns_ahead"`
}

type processDetail struct {
	models.SelectionProcess
	UserTurn    *turnInfo `json:"user_turn,omitempty"`
	IsUsersTurn bool      `json:"is_users_turn"`
}

type processSummary struct {
	ID                 primitive.ObjectID `json:"id"`
	StableID           primitive.ObjectID `json:"stable_id"`
	Name               string             `json:"name"`
	Algorithm          string             `json:"algorithm"`
	Status             string             `json:"status"`
	SelectionStartDate time.Time          `json:"selection_start_date"`
	SelectionEndDate   time.Time          `json:"selection_end_date"`
	TurnCount          int                `json:"turn_count"`
	CurrentTurnIndex   int                `json:"current_turn_index"`
	CreatedAt          time.Time          `json:"created_at"`
}

type listResponse struct {
	Processes []processSummary `json:"processes"`
	Total     int64            `json:"total"`
	Limit     int64            `json:"limit"`
	Offset    int64            `json:"offset"`
}

type orderedMember struct {
	UserID   primitive.ObjectID `json:"user_id"`
	UserName string             `json:"user_name"`
}

type computeOrderResponse struct {
	MemberOrder          []orderedMember `json:"member_order"`
	QuotaPerMember       float64         `json:"quota_per_member,omitempty"`
	TotalAvailablePoints float64         `json:"total_available_points,omitempty"`
}

type completeTurnResponse struct {
	ProcessCompleted bool                `json:"process_completed"`
	NextTurnUserID   *primitive.ObjectID `json:"next_turn_user_id,omitempty"`
	CurrentTurnIndex int                 `json:"current_turn_index"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

/* -------------------------------------------------------------------------- */
/* Validation helpers                                                         */
/* -------------------------------------------------------------------------- */

// parseMemberOrder converts hex IDs into ObjectIDs, rejecting malformed
// and duplicate entries. A member cannot hold two turns.
func parseMemberOrder(raw []string) ([]primitive.ObjectID, []string) {
	var problems []string
	seen := make(map[primitive.ObjectID]bool, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			problems = append(problems, "invalid member id: "+s)
			continue
		}
		if seen[id] {
			problems = append(problems, "duplicate member id: "+s)
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, problems
}

// validatePeriod checks the selection period ordering.
func validatePeriod(start, end time.Time) []string {
	var problems []string
	if start.IsZero() || end.IsZero() {
		problems = append(problems, "selection_start_date and selection_end_date are required")
		return problems
	}
	if !start.Before(end) {
		problems = append(problems, "selection_start_date must be before selection_end_date")
	}
	return problems
}

var errUnknownMembers = errors.New("some users are not members of this stable")

// resolveMembers validates the ordered IDs against the stable's active
// membership and denormalizes display fields. The returned slice keeps
// the input order.
func (h *Handler) resolveMembers(ctx context.Context, stableID primitive.ObjectID, ids []primitive.ObjectID) ([]turnorder.Member, []string, error) {
	check, err := h.memberships.ValidateStableMembers(ctx, stableID, ids)
	if err != nil {
		return nil, nil, err
	}
	if !check.Valid {
		details := make([]string, 0, len(check.InvalidUserIDs))
		for _, id := range check.InvalidUserIDs {
			details = append(details, "not a member of this stable: "+id.Hex())
		}
		return nil, details, errUnknownMembers
	}

	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	members := make([]turnorder.Member, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, []string{"unknown user: " + id.Hex()}, errUnknownMembers
		}
		members = append(members, turnorder.Member{UserID: u.ID, Name: u.FullName, Email: u.Email})
	}
	return members, nil, nil
}

// buildTurns maps an ordered member list into the turn shape. Display
// fields are frozen here and never re-read.
func buildTurns(members []turnorder.Member) []models.Turn {
	turns := make([]models.Turn, len(members))
	for i, m := range members {
		turns[i] = models.Turn{
			UserID:    m.UserID,
			UserName:  m.Name,
			UserEmail: m.Email,
			Order:     i,
			Status:    models.TurnPending,
		}
	}
	return turns
}

// getUserTurnInfo computes the caller's slot and how many uncompleted
// turns precede it. Returns nil when the user holds no turn.
func getUserTurnInfo(p *models.SelectionProcess, userID primitive.ObjectID) *turnInfo {
	for _, t := range p.Turns {
		if t.UserID != userID {
			continue
		}
		ahead := 0
		for i := 0; i < t.Order; i++ {
			if p.Turns[i].Status != models.TurnCompleted {
				ahead++
			}
		}
		return &turnInfo{Order: t.Order, Status: t.Status, TurnsAhead: ahead}
	}
	return nil
}

// sanitizeName strips markup from a user-supplied name field.
func sanitizeName(s string) string {
	return htmlsanitize.Strip(s)
}

// sanitizeDescription keeps safe formatting for a description.
func sanitizeDescription(s string) string {
	return htmlsanitize.Sanitize(s)
}

// decodeBody decodes a JSON request body, writing a validation error on
// failure. Returns false when the handler should stop.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.BadRequest(w, "Request body must be valid JSON.", err.Error())
		return false
	}
	return true
}
