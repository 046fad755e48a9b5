// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Tenant and account collections
	ensure("organizations", orgsSchema())
	ensure("users", usersSchema())
	ensure("stables", stablesSchema())
	ensure("stable_memberships", stableMembershipsSchema())

	// Selection workflow collections
	ensure("selection_processes", selectionProcessesSchema())
	ensure("selections", selectionsSchema())
	ensure("selection_histories", selectionHistoriesSchema())
	ensure("routine_instances", routineInstancesSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("login_records", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "status"},
			"properties": bson.M{
				"name":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status":    bson.M{"enum": bson.A{"active", "disabled"}},
				"time_zone": bson.M{"bsonType": "string"},
				"modules":   bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":      bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": bson.A{"admin", "manager", "member"}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
				"organization_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func stablesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "name", "name_ci"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"name":            bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":         bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description":     bson.M{"bsonType": "string"},
			},
		},
	}
}

func stableMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"stable_id", "user_id", "organization_id", "role", "status"},
			"properties": bson.M{
				"stable_id":       bson.M{"bsonType": "objectId"},
				"user_id":         bson.M{"bsonType": "objectId"},
				"organization_id": bson.M{"bsonType": "objectId"},
				"role":            bson.M{"enum": bson.A{"manager", "member"}},
				"status":          bson.M{"enum": bson.A{"active", "disabled"}},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func selectionProcessesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "stable_id", "status", "algorithm"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"stable_id":       bson.M{"bsonType": "objectId"},
				"status":          bson.M{"enum": bson.A{"draft", "active", "completed", "cancelled"}},
				"algorithm":       bson.M{"enum": bson.A{"manual", "rotation", "quota_based"}},
				"current_turn_index": bson.M{"bsonType": "int"},
				"turns":              bson.M{"bsonType": "array"},
				"period_start":       bson.M{"bsonType": "date"},
				"period_end":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func selectionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"process_id", "user_id"},
			"properties": bson.M{
				"process_id": bson.M{"bsonType": "objectId"},
				"user_id":    bson.M{"bsonType": "objectId"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func selectionHistoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "stable_id", "completed_at"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"stable_id":       bson.M{"bsonType": "objectId"},
				"process_id":      bson.M{"bsonType": "objectId"},
				"completed_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func routineInstancesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"stable_id", "name", "points", "scheduled_at"},
			"properties": bson.M{
				"stable_id":    bson.M{"bsonType": "objectId"},
				"name":         bson.M{"bsonType": "string", "minLength": 1},
				"points":       bson.M{"bsonType": bson.A{"double", "int", "long"}},
				"scheduled_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
