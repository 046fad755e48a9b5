// internal/domain/models/selection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection is a per-turn selection record stored in the selections
// subcollection of a process. These documents are written by the routine
// booking subsystem; this service only reads and (on process delete)
// removes them.
type Selection struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProcessID primitive.ObjectID `bson:"process_id" json:"process_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	RoutineID primitive.ObjectID `bson:"routine_id" json:"routine_id"`
	Points    float64            `bson:"points" json:"points"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
