package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/paddockops/equihub/internal/app/system/modules"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the selection
// module enabled.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		City:      "Test City",
		Country:   "SE",
		TimeZone:  "Europe/Stockholm",
		Modules:   []string{modules.SelectionProcesses},
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateOrganizationWithModules creates a test organization with an
// explicit module set (which may be empty).
func (f *Fixtures) CreateOrganizationWithModules(ctx context.Context, name string, moduleKeys []string) models.Organization {
	f.t.Helper()

	org := f.CreateOrganization(ctx, name)
	org.Modules = moduleKeys
	if _, err := f.db.Collection("organizations").ReplaceOne(ctx, map[string]any{"_id": org.ID}, org); err != nil {
		f.t.Fatalf("failed to set test organization modules: %v", err)
	}
	return org
}

// CreateStable creates a test stable under the given organization.
func (f *Fixtures) CreateStable(ctx context.Context, orgID primitive.ObjectID, name string) models.Stable {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Stable{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           name,
		NameCI:         text.Fold(name),
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("stables").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test stable: %v", err)
	}
	return st
}

// CreateUser creates a test user with the given role. For managers and
// members, orgID should be provided.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, orgID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Email:          email,
		EmailCI:        text.Fold(email),
		Role:           role,
		Status:         "active",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUserWithPassword creates a user who can sign in with the given
// plaintext password.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, fullName, email, password, role string, orgID *primitive.ObjectID) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}
	u := f.CreateUser(ctx, fullName, email, role, orgID)
	u.PasswordHash = string(hash)
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"password_hash": u.PasswordHash}}); err != nil {
		f.t.Fatalf("failed to set test password: %v", err)
	}
	return u
}

// CreateMembership joins a user to a stable with the given role
// ("manager" or "member").
func (f *Fixtures) CreateMembership(ctx context.Context, stableID, userID, orgID primitive.ObjectID, role string) models.StableMembership {
	f.t.Helper()

	m := models.StableMembership{
		ID:        primitive.NewObjectID(),
		StableID:  stableID,
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("stable_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateMember creates a user and an active member-role membership in
// one call, returning the user.
func (f *Fixtures) CreateMember(ctx context.Context, stable models.Stable, fullName, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, "member", &stable.OrganizationID)
	f.CreateMembership(ctx, stable.ID, u.ID, stable.OrganizationID, "member")
	return u
}

// CreateDraftProcess inserts a minimal draft process with no turns.
func (f *Fixtures) CreateDraftProcess(ctx context.Context, orgID, stableID, createdBy primitive.ObjectID) models.SelectionProcess {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.SelectionProcess{
		ID:                 primitive.NewObjectID(),
		OrganizationID:     orgID,
		StableID:           stableID,
		Name:               "Test Selection Round",
		SelectionStartDate: now.Add(24 * time.Hour),
		SelectionEndDate:   now.Add(14 * 24 * time.Hour),
		Algorithm:          models.AlgorithmManual,
		CurrentTurnIndex:   -1,
		Status:             models.ProcessDraft,
		CreatedAt:          now,
		CreatedBy:          createdBy,
		UpdatedAt:          now,
		UpdatedBy:          createdBy,
	}

	if _, err := f.db.Collection("selection_processes").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test process: %v", err)
	}
	return p
}

// CreateProcessWithTurns inserts a process in the given status with one
// turn per user, in order. For an active process the first turn is
// active and the current index is 0.
func (f *Fixtures) CreateProcessWithTurns(ctx context.Context, orgID, stableID, createdBy primitive.ObjectID, status string, users []models.User) models.SelectionProcess {
	f.t.Helper()

	now := time.Now().UTC()
	turns := make([]models.Turn, len(users))
	for i, u := range users {
		turns[i] = models.Turn{
			UserID:    u.ID,
			UserName:  u.FullName,
			UserEmail: u.Email,
			Order:     i,
			Status:    models.TurnPending,
		}
	}

	p := models.SelectionProcess{
		ID:                 primitive.NewObjectID(),
		OrganizationID:     orgID,
		StableID:           stableID,
		Name:               "Test Selection Round",
		SelectionStartDate: now.Add(24 * time.Hour),
		SelectionEndDate:   now.Add(14 * 24 * time.Hour),
		Algorithm:          models.AlgorithmManual,
		Turns:              turns,
		CurrentTurnIndex:   -1,
		Status:             status,
		CreatedAt:          now,
		CreatedBy:          createdBy,
		UpdatedAt:          now,
		UpdatedBy:          createdBy,
	}

	if status == models.ProcessActive && len(turns) > 0 {
		p.Turns[0].Status = models.TurnActive
		p.CurrentTurnIndex = 0
		p.CurrentTurnUserID = &p.Turns[0].UserID
		p.StartedAt = &now
	}

	if _, err := f.db.Collection("selection_processes").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test process: %v", err)
	}
	return p
}

// CreateHistory inserts a completed-round snapshot for a stable with
// the given final order, completed at the given time.
func (f *Fixtures) CreateHistory(ctx context.Context, orgID, stableID primitive.ObjectID, order []primitive.ObjectID, completedAt time.Time) models.SelectionHistory {
	f.t.Helper()

	entries := make([]models.HistoryEntry, len(order))
	for i, id := range order {
		entries[i] = models.HistoryEntry{UserID: id, Order: i}
	}

	h := models.SelectionHistory{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		StableID:       stableID,
		ProcessID:      primitive.NewObjectID(),
		Algorithm:      models.AlgorithmRotation,
		FinalOrder:     entries,
		CompletedAt:    completedAt,
		CreatedAt:      completedAt,
	}

	if _, err := f.db.Collection("selection_histories").InsertOne(ctx, h); err != nil {
		f.t.Fatalf("failed to create test history: %v", err)
	}
	return h
}

// CreateRoutineInstance inserts a selectable routine occurrence with a
// point value.
func (f *Fixtures) CreateRoutineInstance(ctx context.Context, stableID primitive.ObjectID, points float64, scheduledAt time.Time) models.RoutineInstance {
	f.t.Helper()

	ri := models.RoutineInstance{
		ID:          primitive.NewObjectID(),
		StableID:    stableID,
		Name:        "Feeding shift",
		Points:      points,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := f.db.Collection("routine_instances").InsertOne(ctx, ri); err != nil {
		f.t.Fatalf("failed to create test routine instance: %v", err)
	}
	return ri
}
