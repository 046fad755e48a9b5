// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents organization admins, stable managers, and members.
//
// NOTE:
//   - Stable membership is not embedded on User.
//     Use the stable_memberships collection to discover a user's stables.
type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName       string              `bson:"full_name" json:"full_name"`
	FullNameCI     string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email          string              `bson:"email" json:"email"`
	EmailCI        string              `bson:"email_ci" json:"-"`
	PasswordHash   string              `bson:"password_hash,omitempty" json:"-"`
	Role           string              `bson:"role" json:"role"` // admin | manager | member
	Status         string              `bson:"status,omitempty" json:"status,omitempty"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
