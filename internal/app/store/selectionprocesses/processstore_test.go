package processstore_test

import (
	"errors"
	"testing"
	"time"

	processstore "github.com/paddockops/equihub/internal/app/store/selectionprocesses"
	"github.com/paddockops/equihub/internal/domain/models"
	"github.com/paddockops/equihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// draftCandidate builds an insertable draft without writing it, so
// guard tests control exactly which statuses are already present.
func draftCandidate(orgID, stableID, createdBy primitive.ObjectID) models.SelectionProcess {
	now := time.Now().UTC()
	return models.SelectionProcess{
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
}

func TestStore_Create_ActiveBlocksNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")
	fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, member.ID,
		models.ProcessActive, []models.User{member})

	next := draftCandidate(org.ID, stable.ID, member.ID)
	err := store.Create(ctx, &next)
	if !errors.Is(err, processstore.ErrOpenProcessExists) {
		t.Fatalf("expected ErrOpenProcessExists, got %v", err)
	}
}

func TestStore_Create_DraftBlocksNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	creator := primitive.NewObjectID()

	// A lingering draft blocks too: if it did not, starting both
	// drafts would leave two active processes in one stable.
	fixtures.CreateDraftProcess(ctx, org.ID, stable.ID, creator)

	p := draftCandidate(org.ID, stable.ID, creator)
	err := store.Create(ctx, &p)
	if !errors.Is(err, processstore.ErrOpenProcessExists) {
		t.Fatalf("expected ErrOpenProcessExists, got %v", err)
	}
}

func TestStore_Create_AllowedAfterTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")

	fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, member.ID,
		models.ProcessCompleted, []models.User{member})
	fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, member.ID,
		models.ProcessCancelled, []models.User{member})

	p := draftCandidate(org.ID, stable.ID, member.ID)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
}

func TestStore_GetActiveForStable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")

	got, err := store.GetActiveForStable(ctx, stable.ID)
	if err != nil {
		t.Fatalf("GetActiveForStable failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil when no active process exists")
	}

	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")
	active := fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, member.ID,
		models.ProcessActive, []models.User{member})

	got, err = store.GetActiveForStable(ctx, stable.ID)
	if err != nil {
		t.Fatalf("GetActiveForStable failed: %v", err)
	}
	if got == nil || got.ID != active.ID {
		t.Error("expected the active process to be returned")
	}
}

func TestStore_ListByStable_StatusFilterAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	creator := primitive.NewObjectID()

	for i := 0; i < 3; i++ {
		fixtures.CreateDraftProcess(ctx, org.ID, stable.ID, creator)
	}
	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")
	fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, creator,
		models.ProcessCompleted, []models.User{member})

	drafts, total, err := store.ListByStable(ctx, stable.ID, models.ProcessDraft, 2, 0)
	if err != nil {
		t.Fatalf("ListByStable failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(drafts) != 2 {
		t.Errorf("page length = %d, want 2", len(drafts))
	}

	all, total, err := store.ListByStable(ctx, stable.ID, "", 10, 0)
	if err != nil {
		t.Fatalf("ListByStable failed: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Errorf("unfiltered: total=%d len=%d, want 4/4", total, len(all))
	}
}

func TestStore_UpdatePeriod_PreservesTurnState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	anna := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")
	bo := fixtures.CreateMember(ctx, stable, "Bo Ek", "bo@test.com")
	p := fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, anna.ID,
		models.ProcessActive, []models.User{anna, bo})

	// A turn is completed after the caller read the document but
	// before the period write lands.
	if _, err := db.Collection("selection_processes").UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"turns.0.status":       models.TurnCompleted,
			"turns.1.status":       models.TurnActive,
			"current_turn_index":   1,
			"current_turn_user_id": bo.ID,
		}}); err != nil {
		t.Fatalf("advance turn: %v", err)
	}

	newStart := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	newEnd := newStart.Add(7 * 24 * time.Hour)
	err := store.UpdatePeriod(ctx, p.ID, processstore.PeriodUpdate{
		SelectionStartDate: newStart,
		SelectionEndDate:   newEnd,
		Algorithm:          p.Algorithm,
		UpdatedBy:          anna.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePeriod failed: %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.SelectionStartDate.Equal(newStart) || !got.SelectionEndDate.Equal(newEnd) {
		t.Errorf("period = %v..%v, want %v..%v",
			got.SelectionStartDate, got.SelectionEndDate, newStart, newEnd)
	}
	if got.CurrentTurnIndex != 1 {
		t.Errorf("current_turn_index = %d, want 1 (concurrent completion reverted)", got.CurrentTurnIndex)
	}
	if got.Turns[0].Status != models.TurnCompleted || got.Turns[1].Status != models.TurnActive {
		t.Errorf("turn statuses = %q/%q, want completed/active",
			got.Turns[0].Status, got.Turns[1].Status)
	}
}

func TestStore_UpdatePeriod_RequiresActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")
	p := fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, member.ID,
		models.ProcessCompleted, []models.User{member})

	start := time.Now().UTC().Add(24 * time.Hour)
	err := store.UpdatePeriod(ctx, p.ID, processstore.PeriodUpdate{
		SelectionStartDate: start,
		SelectionEndDate:   start.Add(7 * 24 * time.Hour),
		Algorithm:          p.Algorithm,
		UpdatedBy:          member.ID,
	})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected mongo.ErrNoDocuments for non-active process, got %v", err)
	}
}

func TestStore_Replace_MissingDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := models.SelectionProcess{ID: primitive.NewObjectID(), Name: "ghost"}
	err := store.Replace(ctx, &p)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_CountByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := processstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	stable := fixtures.CreateStable(ctx, org.ID, "Test Stable")
	creator := primitive.NewObjectID()
	member := fixtures.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")

	fixtures.CreateDraftProcess(ctx, org.ID, stable.ID, creator)
	fixtures.CreateDraftProcess(ctx, org.ID, stable.ID, creator)
	fixtures.CreateProcessWithTurns(ctx, org.ID, stable.ID, creator,
		models.ProcessCompleted, []models.User{member})

	counts, err := store.CountByStatus(ctx, stable.ID)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[models.ProcessDraft] != 2 {
		t.Errorf("draft count = %d, want 2", counts[models.ProcessDraft])
	}
	if counts[models.ProcessCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", counts[models.ProcessCompleted])
	}
}
