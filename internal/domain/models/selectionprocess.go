// internal/domain/models/selectionprocess.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection process lifecycle statuses.
//
//	draft → active → completed
//	draft → cancelled
//	active → cancelled
//
// completed and cancelled are terminal.
const (
	ProcessDraft     = "draft"
	ProcessActive    = "active"
	ProcessCompleted = "completed"
	ProcessCancelled = "cancelled"
)

// Turn-order algorithms.
const (
	AlgorithmManual     = "manual"
	AlgorithmRotation   = "rotation"
	AlgorithmQuotaBased = "quota_based"
)

// Turn statuses. Exactly one turn is active while the process is active;
// every turn before the current index is completed, every turn after is
// pending.
const (
	TurnPending   = "pending"
	TurnActive    = "active"
	TurnCompleted = "completed"
)

// ValidAlgorithm reports whether s names a known turn-order algorithm.
func ValidAlgorithm(s string) bool {
	return s == AlgorithmManual || s == AlgorithmRotation || s == AlgorithmQuotaBased
}

// Turn is one member's slot in the ordered selection sequence. Display
// fields are denormalized at construction time and never re-read, even
// if the member's profile changes afterwards.
type Turn struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserName    string             `bson:"user_name" json:"user_name"`
	UserEmail   string             `bson:"user_email" json:"user_email"`
	Order       int                `bson:"order" json:"order"`
	Status      string             `bson:"status" json:"status"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// SelectionProcess is one run of the turn-based allocation state machine.
//
// Invariants:
//   - Turns[i].Order == i for all i; no duplicate user IDs.
//   - CurrentTurnIndex indexes a valid turn while Status == active and
//     is -1 otherwise.
//   - At most one process per stable is active at any time (best-effort
//     guard at creation, see the selectionprocesses store).
//   - SelectionStartDate < SelectionEndDate.
type SelectionProcess struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	StableID       primitive.ObjectID `bson:"stable_id" json:"stable_id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description" json:"description"`

	SelectionStartDate time.Time `bson:"selection_start_date" json:"selection_start_date"`
	SelectionEndDate   time.Time `bson:"selection_end_date" json:"selection_end_date"`

	Algorithm            string  `bson:"algorithm" json:"algorithm"`
	QuotaPerMember       float64 `bson:"quota_per_member,omitempty" json:"quota_per_member,omitempty"`
	TotalAvailablePoints float64 `bson:"total_available_points,omitempty" json:"total_available_points,omitempty"`

	Turns             []Turn              `bson:"turns" json:"turns"`
	CurrentTurnIndex  int                 `bson:"current_turn_index" json:"current_turn_index"`
	CurrentTurnUserID *primitive.ObjectID `bson:"current_turn_user_id,omitempty" json:"current_turn_user_id,omitempty"`

	Status string `bson:"status" json:"status"`

	CancellationReason string              `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelledBy        *primitive.ObjectID `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`

	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	UpdatedBy primitive.ObjectID `bson:"updated_by" json:"updated_by"`
}

// IsTerminal reports whether the process is in a terminal status.
func (p SelectionProcess) IsTerminal() bool {
	return p.Status == ProcessCompleted || p.Status == ProcessCancelled
}

// CurrentTurn returns the active turn, or nil when the process is not
// running.
func (p SelectionProcess) CurrentTurn() *Turn {
	if p.Status != ProcessActive || p.CurrentTurnIndex < 0 || p.CurrentTurnIndex >= len(p.Turns) {
		return nil
	}
	return &p.Turns[p.CurrentTurnIndex]
}

// IsUsersTurn reports whether userID occupies the currently active turn.
func (p SelectionProcess) IsUsersTurn(userID primitive.ObjectID) bool {
	t := p.CurrentTurn()
	return t != nil && t.UserID == userID
}
