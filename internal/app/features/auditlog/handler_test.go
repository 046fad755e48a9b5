package auditlog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paddockops/equihub/internal/app/features/auditlog"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listResponse struct {
	Events []struct {
		ID        string `json:"id"`
		Category  string `json:"category"`
		EventType string `json:"event_type"`
		ProcessID string `json:"process_id"`
	} `json:"events"`
	Total int64 `json:"total"`
}

func newTestHandler(t *testing.T) (*auditlog.Handler, *audit.Store, primitive.ObjectID) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return auditlog.NewHandler(db, zap.NewNop()), audit.New(db), primitive.NewObjectID()
}

func logEvent(t *testing.T, ctx context.Context, store *audit.Store, orgID primitive.ObjectID, category, eventType string, processID *primitive.ObjectID) {
	t.Helper()
	err := store.Log(ctx, audit.Event{
		Timestamp:      time.Now().UTC(),
		OrganizationID: &orgID,
		ProcessID:      processID,
		Category:       category,
		EventType:      eventType,
		Success:        true,
	})
	if err != nil {
		t.Fatalf("log event: %v", err)
	}
}

func TestHandleList_AdminOnly(t *testing.T) {
	h, _, orgID := newTestHandler(t)

	req := testutil.JSONRequest(t, "GET", "/api/audit-log", nil)
	req = testutil.WithUser(req, testutil.MemberUser(orgID))
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-admin, got %d", rec.Code)
	}
}

func TestHandleList_ScopedToOrgAndCategory(t *testing.T) {
	h, store, orgID := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logEvent(t, ctx, store, orgID, audit.CategoryAuth, audit.EventLoginSuccess, nil)
	logEvent(t, ctx, store, orgID, audit.CategoryAuth, audit.EventLogout, nil)
	logEvent(t, ctx, store, orgID, audit.CategoryAdmin, audit.EventStableCreated, nil)
	logEvent(t, ctx, store, primitive.NewObjectID(), audit.CategoryAuth, audit.EventLoginSuccess, nil)

	req := testutil.JSONRequest(t, "GET", "/api/audit-log", nil)
	req = testutil.WithUser(req, testutil.AdminUser(orgID))
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Total != 3 {
		t.Errorf("expected 3 events in own org, got %d", resp.Total)
	}

	req = testutil.JSONRequest(t, "GET", "/api/audit-log?category=auth", nil)
	req = testutil.WithUser(req, testutil.AdminUser(orgID))
	rec = httptest.NewRecorder()
	h.HandleList(rec, req)

	testutil.DecodeJSON(t, rec, &resp)
	if resp.Total != 2 {
		t.Errorf("expected 2 auth events, got %d", resp.Total)
	}
	for _, e := range resp.Events {
		if e.Category != audit.CategoryAuth {
			t.Errorf("unexpected category in filtered list: %q", e.Category)
		}
	}
}

func TestHandleList_RejectsBadParams(t *testing.T) {
	h, _, orgID := newTestHandler(t)

	for _, target := range []string{
		"/api/audit-log?process_id=nope",
		"/api/audit-log?start=yesterday",
		"/api/audit-log?limit=0",
		"/api/audit-log?offset=-1",
	} {
		req := testutil.JSONRequest(t, "GET", target, nil)
		req = testutil.WithUser(req, testutil.AdminUser(orgID))
		rec := httptest.NewRecorder()
		h.HandleList(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandleListByProcess(t *testing.T) {
	h, store, orgID := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	processID := primitive.NewObjectID()
	logEvent(t, ctx, store, orgID, audit.CategorySelection, audit.EventProcessStarted, &processID)
	logEvent(t, ctx, store, orgID, audit.CategorySelection, audit.EventTurnCompleted, &processID)
	logEvent(t, ctx, store, orgID, audit.CategorySelection, audit.EventProcessStarted, nil)

	req := testutil.JSONRequest(t, "GET", "/api/audit-log/processes/"+processID.Hex(), nil)
	req = testutil.WithUser(req, testutil.AdminUser(orgID))
	req = testutil.WithChiURLParam(req, "processID", processID.Hex())
	rec := httptest.NewRecorder()
	h.HandleListByProcess(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 process events, got %d", len(resp.Events))
	}
	for _, e := range resp.Events {
		if e.ProcessID != processID.Hex() {
			t.Errorf("unexpected process_id: %q", e.ProcessID)
		}
	}
}
