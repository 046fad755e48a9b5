package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestContext returns a context with a generous timeout for test
// database calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB connects to the test MongoDB instance and returns a
// database unique to the calling test. The database is dropped and the
// client disconnected during cleanup.
//
// Set EQUIHUB_TEST_MONGO_URI to point somewhere other than localhost.
// If no MongoDB is reachable the test is skipped, so the suite still
// passes on machines without a local instance.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("EQUIHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongodb not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("mongodb not reachable at %s: %v", uri, err)
	}

	dbName := fmt.Sprintf("equihub_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// SetupTestClient is like SetupTestDB but also returns the client, for
// tests that exercise transactional code paths.
func SetupTestClient(t *testing.T) (*mongo.Client, *mongo.Database) {
	t.Helper()
	db := SetupTestDB(t)
	return db.Client(), db
}

// EnsureMembershipIndex creates the unique (stable_id, user_id) index
// that backs duplicate-membership detection, for tests that exercise
// the duplicate path without running full schema setup.
func EnsureMembershipIndex(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("stable_memberships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "stable_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetName("stable_user_unique").SetUnique(true),
	})
	return err
}

// EnsureStableNameIndex creates the unique (organization_id, name_ci)
// index backing duplicate-stable-name detection.
func EnsureStableNameIndex(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("stables").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "name_ci", Value: 1}},
		Options: options.Index().SetName("org_name_ci_unique").SetUnique(true),
	})
	return err
}

// EnsureOrganizationNameIndex creates the unique name_ci index backing
// duplicate-organization detection.
func EnsureOrganizationNameIndex(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("organizations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetName("name_ci_unique").SetUnique(true),
	})
	return err
}

// EnsureUserEmailIndex creates the unique email_ci index backing
// duplicate-email detection.
func EnsureUserEmailIndex(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetName("email_ci_unique").SetUnique(true),
	})
	return err
}
