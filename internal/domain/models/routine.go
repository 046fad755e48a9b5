// internal/domain/models/routine.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutineInstance is one selectable occurrence of a stable routine
// (a feeding shift, paddock rotation, arena slot, ...). Each instance
// carries a point value; the quota-based algorithm sums the points of
// all instances scheduled inside the selection period.
type RoutineInstance struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	StableID    primitive.ObjectID `bson:"stable_id" json:"stable_id"`
	Name        string             `bson:"name" json:"name"`
	Points      float64            `bson:"points" json:"points"`
	ScheduledAt time.Time          `bson:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
