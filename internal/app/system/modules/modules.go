// internal/app/system/modules/modules.go

// Package modules implements the per-tenant subscription module gate.
// Every feature surface checks its module key once per request, before
// any handler logic runs.
package modules

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Subscription module keys.
const (
	SelectionProcesses = "selection_processes"
	Invoicing          = "invoicing"
	Lessons            = "lessons"
)

// IsEnabled reports whether the organization's subscription includes the
// given module. A missing organization counts as disabled.
func IsEnabled(ctx context.Context, db *mongo.Database, orgID primitive.ObjectID, key string) (bool, error) {
	var doc struct {
		Modules []string `bson:"modules"`
	}
	err := db.Collection("organizations").FindOne(ctx, bson.M{"_id": orgID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, m := range doc.Modules {
		if m == key {
			return true, nil
		}
	}
	return false, nil
}

// Require checks the gate and, when the module is disabled, writes a 403
// naming the missing subscription module. Returns false when the request
// has been answered (either 403 or 500).
func Require(ctx context.Context, db *mongo.Database, w http.ResponseWriter, orgID primitive.ObjectID, key string) (bool, error) {
	enabled, err := IsEnabled(ctx, db, orgID, key)
	if err != nil {
		return false, err
	}
	if !enabled {
		apierrors.Forbidden(w, "The "+key+" module is not enabled for this organization.")
		return false, nil
	}
	return true, nil
}
