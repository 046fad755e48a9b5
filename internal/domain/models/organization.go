// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is the top-level tenant. It owns stables and carries the
// set of subscription modules enabled for the tenant.
// Case/diacritic-insensitive fields are stored alongside for search/sort.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	City        string             `bson:"city" json:"city"`
	Country     string             `bson:"country" json:"country"`
	TimeZone    string             `bson:"time_zone" json:"time_zone"`
	ContactInfo string             `bson:"contact_info" json:"contact_info"`

	// Modules holds the subscription module keys enabled for this tenant
	// (e.g. "selection_processes", "invoicing", "lessons").
	Modules []string `bson:"modules" json:"modules"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasModule reports whether the given module key is enabled for the tenant.
func (o Organization) HasModule(key string) bool {
	for _, m := range o.Modules {
		if m == key {
			return true
		}
	}
	return false
}
