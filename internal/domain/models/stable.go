// internal/domain/models/stable.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stable is one physical facility under an organization. Members are not
// embedded here; use the stable_memberships collection.
type Stable struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"-"`
	Description    string             `bson:"description" json:"description"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
