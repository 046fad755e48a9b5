// internal/domain/models/stablemembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StableMembership is the authoritative join between users and stables.
// Exactly one document per (user_id, stable_id); role is a scalar
// ("manager"|"member").
type StableMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StableID  primitive.ObjectID `bson:"stable_id" json:"stable_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrgID     primitive.ObjectID `bson:"org_id" json:"org_id"`
	Role      string             `bson:"role" json:"role"` // "manager" | "member"
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
