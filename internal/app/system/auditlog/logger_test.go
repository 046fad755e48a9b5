package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"github.com/paddockops/equihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), nil, "rider@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID())
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:      "off",
		Admin:     "off",
		Selection: "off",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:      "db",
		Admin:     "db",
		Selection: "db",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestLogger_ProcessEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Selection: "db"})

	f := testutil.NewFixtures(t, db)
	actorID := primitive.NewObjectID()
	proc := f.CreateDraftProcess(ctx, primitive.NewObjectID(), primitive.NewObjectID(), actorID)
	req := httptest.NewRequest("POST", "/api/selection-processes", nil)

	logger.ProcessEvent(ctx, req, audit.EventProcessCreated, actorID, &proc, map[string]string{"name": proc.Name})

	events, err := store.GetByProcess(ctx, proc.ID, 10)
	if err != nil {
		t.Fatalf("GetByProcess failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventProcessCreated {
		t.Errorf("event_type = %q, want %q", events[0].EventType, audit.EventProcessCreated)
	}
	if events[0].ActorID == nil || *events[0].ActorID != actorID {
		t.Error("actor_id not recorded")
	}
}
