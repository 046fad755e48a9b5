// internal/domain/models/selectionhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryEntry is one member's final position in a completed process.
type HistoryEntry struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Order  int                `bson:"order" json:"order"`
}

// SelectionHistory is an immutable snapshot of a completed selection
// process, keyed by stable. It exists solely as input to future
// rotation/quota-based order computations and is never mutated.
type SelectionHistory struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	StableID       primitive.ObjectID `bson:"stable_id" json:"stable_id"`
	ProcessID      primitive.ObjectID `bson:"process_id" json:"process_id"`
	Algorithm      string             `bson:"algorithm" json:"algorithm"`
	FinalOrder     []HistoryEntry     `bson:"final_order" json:"final_order"`
	CompletedAt    time.Time          `bson:"completed_at" json:"completed_at"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
