// internal/app/policy/stablepolicy.go
package stablepolicy

import (
	"context"
	"net/http"

	"github.com/paddockops/equihub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ResolveOrgID resolves the owning organization for a stable via a point
// read. Returns NilObjectID (not an error) when the stable does not exist,
// so callers can answer not-found without disclosing more.
func ResolveOrgID(ctx context.Context, db *mongo.Database, stableID primitive.ObjectID) (primitive.ObjectID, error) {
	var doc struct {
		OrganizationID primitive.ObjectID `bson:"organization_id"`
	}
	err := db.Collection("stables").FindOne(ctx, bson.M{"_id": stableID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, nil
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return doc.OrganizationID, nil
}

// IsManager returns true if the given user is a manager of the given
// stable according to the authoritative stable_memberships collection.
func IsManager(ctx context.Context, db *mongo.Database, stableID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("stable_memberships").CountDocuments(ctx, bson.M{
		"stable_id": stableID,
		"user_id":   userID,
		"role":      "manager",
		"status":    "active",
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsMember returns true if the given user holds any active membership in
// the stable (manager or member).
func IsMember(ctx context.Context, db *mongo.Database, stableID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("stable_memberships").CountDocuments(ctx, bson.M{
		"stable_id": stableID,
		"user_id":   userID,
		"status":    "active",
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageStable reports whether the current request user can administer
// selection processes for the stable:
//   - Admins can, if the stable belongs to their organization
//   - Managers can only if they manage this specific stable AND it belongs
//     to their organization
//   - Members never can
//
// Returns an error only on database failure, so callers can distinguish
// "not authorized" (false, nil) from "database error" (false, err).
func CanManageStable(ctx context.Context, db *mongo.Database, r *http.Request, stableID, stableOrgID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	userOrgID := authz.UserOrgID(r)
	if userOrgID == primitive.NilObjectID || userOrgID != stableOrgID {
		return false, nil
	}
	if role == "admin" {
		return true, nil
	}
	if role != "manager" {
		return false, nil
	}
	return IsManager(ctx, db, stableID, uid)
}

// CanViewStable reports whether the current request user may read
// selection-process data for the stable: anyone who can manage it, plus
// any active member of it.
func CanViewStable(ctx context.Context, db *mongo.Database, r *http.Request, stableID, stableOrgID primitive.ObjectID) (bool, error) {
	can, err := CanManageStable(ctx, db, r, stableID, stableOrgID)
	if err != nil || can {
		return can, err
	}
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if authz.UserOrgID(r) != stableOrgID {
		return false, nil
	}
	return IsMember(ctx, db, stableID, uid)
}
