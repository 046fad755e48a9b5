// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail
fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureOrganizations(ctx, db); err != nil {
		problems = append(problems, "organizations: "+err.Error())
	}
	if err := ensureStables(ctx, db); err != nil {
		problems = append(problems, "stables: "+err.Error())
	}
	if err := ensureStableMemberships(ctx, db); err != nil {
		problems = append(problems, "stable_memberships: "+err.Error())
	}
	if err := ensureSelectionProcesses(ctx, db); err != nil {
		problems = append(problems, "selection_processes: "+err.Error())
	}
	if err := ensureSelections(ctx, db); err != nil {
		problems = append(problems, "selections: "+err.Error())
	}
	if err := ensureSelectionHistories(ctx, db); err != nil {
		problems = append(problems, "selection_histories: "+err.Error())
	}
	if err := ensureRoutineInstances(ctx, db); err != nil {
		problems = append(problems, "routine_instances: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameUnique(a, b *bool) bool {
	av, bv := false, false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// loadExisting maps key signature -> index for one collection.
func loadExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet reconciles desired indexes against what the collection
// already has: reuse when keys and uniqueness match, drop and recreate
// when uniqueness differs, create otherwise.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := loadExisting(ctx, coll)
	if err != nil {
		return err
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameUnique(desiredUnique, ex.Unique) {
				continue
			}
			// Uniqueness changed (e.g. upgrading to unique): drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (global, cross-org).
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_users_org"),
		},
		// Per-org role lists with a stable name sort.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "role", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_org_role_fullnameci_id"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("organizations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce global uniqueness of organization names (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_status_nameci_id"),
		},
	})
}

func ensureStables(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("stables")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate stable names inside the same org.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_stables_org_nameci"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_stables_org"),
		},
	})
}

func ensureStableMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("stable_memberships")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one membership per (stable, user).
		{
			Keys:    bson.D{{Key: "stable_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_memberships_stable_user"),
		},
		// Member lists per stable filtered by status/role.
		{
			Keys: bson.D{
				{Key: "stable_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "role", Value: 1},
			},
			Options: options.Index().SetName("idx_memberships_stable_status_role"),
		},
		// "My stables" lookups.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_memberships_user_status"),
		},
	})
}

func ensureSelectionProcesses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("selection_processes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Process listings per stable, filtered by status, newest first.
		{
			Keys: bson.D{
				{Key: "stable_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_processes_stable_status_created"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_processes_org"),
		},
	})
}

func ensureSelections(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("selections")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "process_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_selections_process_created"),
		},
	})
}

func ensureSelectionHistories(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("selection_histories")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Rotation reads the latest completions per stable.
		{
			Keys:    bson.D{{Key: "stable_id", Value: 1}, {Key: "completed_at", Value: -1}},
			Options: options.Index().SetName("idx_histories_stable_completed"),
		},
	})
}

func ensureRoutineInstances(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("routine_instances")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Point-pool sums over a stable's schedule window.
		{
			Keys:    bson.D{{Key: "stable_id", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("idx_routines_stable_scheduled"),
		},
	})
}
