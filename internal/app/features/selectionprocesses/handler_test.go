package selectionprocesses_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paddockops/equihub/internal/app/features/selectionprocesses"
	"github.com/paddockops/equihub/internal/app/system/notify"
	"github.com/paddockops/equihub/internal/domain/models"
	"github.com/paddockops/equihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	handler  *selectionprocesses.Handler
	fixtures *testutil.Fixtures
	recorder *notify.Recorder

	org     models.Organization
	stable  models.Stable
	manager models.User
	a, b, c models.User
}

// newTestEnv builds a stable with a manager and three members A, B, C.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	client, db := testutil.SetupTestClient(t)
	f := testutil.NewFixtures(t, db)
	rec := &notify.Recorder{}
	h := selectionprocesses.NewHandler(db, client, zap.NewNop(), nil, rec)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Birchwood Riding Club")
	stable := f.CreateStable(ctx, org.ID, "North Stable")
	manager := f.CreateUser(ctx, "Maja Lind", "maja@test.com", "manager", &org.ID)
	f.CreateMembership(ctx, stable.ID, manager.ID, org.ID, "manager")

	return &testEnv{
		handler:  h,
		fixtures: f,
		recorder: rec,
		org:      org,
		stable:   stable,
		manager:  manager,
		a:        f.CreateMember(ctx, stable, "Anna Berg", "anna@test.com"),
		b:        f.CreateMember(ctx, stable, "Bo Ek", "bo@test.com"),
		c:        f.CreateMember(ctx, stable, "Cleo Dahl", "cleo@test.com"),
	}
}

func (e *testEnv) createBody(memberIDs ...string) map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"stable_id":            e.stable.ID.Hex(),
		"name":                 "Spring Feeding Round",
		"description":          "Feeding shifts for spring.",
		"selection_start_date": now.Add(24 * time.Hour),
		"selection_end_date":   now.Add(14 * 24 * time.Hour),
		"algorithm":            models.AlgorithmManual,
		"member_order":         memberIDs,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, user testutil.TestUser, processID string, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.JSONRequest(t, method, target, body)
	req = testutil.WithUser(req, user)
	if processID != "" {
		req = testutil.WithChiURLParam(req, "processID", processID)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func (e *testEnv) createDraft(t *testing.T, memberIDs ...string) models.SelectionProcess {
	t.Helper()
	rec := e.do(t, "POST", "/selection-processes", e.createBody(memberIDs...),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p models.SelectionProcess
	testutil.DecodeJSON(t, rec, &p)
	return p
}

func (e *testEnv) loadProcess(t *testing.T, id primitive.ObjectID) models.SelectionProcess {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var p models.SelectionProcess
	if err := e.fixtures.DB().Collection("selection_processes").
		FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		t.Fatalf("load process: %v", err)
	}
	return p
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, category string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	var env struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &env)
	if env.Error != category {
		t.Errorf("expected error category %q, got %q", category, env.Error)
	}
}

/* --- create --- */

func TestHandleCreate_ManualOrderBuildsTurns(t *testing.T) {
	e := newTestEnv(t)

	p := e.createDraft(t, e.a.ID.Hex(), e.b.ID.Hex(), e.c.ID.Hex())

	if p.Status != models.ProcessDraft {
		t.Errorf("status = %q, want draft", p.Status)
	}
	if p.CurrentTurnIndex != -1 {
		t.Errorf("current_turn_index = %d, want -1", p.CurrentTurnIndex)
	}
	if len(p.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(p.Turns))
	}
	want := []primitive.ObjectID{e.a.ID, e.b.ID, e.c.ID}
	for i, turn := range p.Turns {
		if turn.Order != i {
			t.Errorf("turns[%d].order = %d, want %d", i, turn.Order, i)
		}
		if turn.UserID != want[i] {
			t.Errorf("turns[%d].user_id = %s, want %s", i, turn.UserID.Hex(), want[i].Hex())
		}
		if turn.Status != models.TurnPending {
			t.Errorf("turns[%d].status = %q, want pending", i, turn.Status)
		}
	}
	if p.Turns[0].UserName != "Anna Berg" || p.Turns[0].UserEmail != "anna@test.com" {
		t.Error("turn display fields not denormalized")
	}
}

func TestHandleCreate_RejectsDuplicateMembers(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/selection-processes",
		e.createBody(e.a.ID.Hex(), e.a.ID.Hex(), e.b.ID.Hex()),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestHandleCreate_RejectsNonMembers(t *testing.T) {
	e := newTestEnv(t)
	stranger := primitive.NewObjectID()

	rec := e.do(t, "POST", "/selection-processes",
		e.createBody(e.a.ID.Hex(), stranger.Hex()),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusBadRequest, "validation_error")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	count, err := e.fixtures.DB().Collection("selection_processes").
		CountDocuments(ctx, bson.M{"stable_id": e.stable.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no document written, found %d", count)
	}
}

func TestHandleCreate_ConflictWhenActiveExists(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	rec := e.do(t, "POST", "/selection-processes", e.createBody(e.a.ID.Hex()),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusConflict, "conflict")
}

func TestHandleCreate_ConflictWhenDraftExists(t *testing.T) {
	e := newTestEnv(t)

	// Two coexisting drafts could both be started, so the second
	// create has to conflict while the first draft is still open.
	e.createDraft(t, e.a.ID.Hex(), e.b.ID.Hex())

	rec := e.do(t, "POST", "/selection-processes", e.createBody(e.a.ID.Hex()),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusConflict, "conflict")
}

func TestHandleCreate_InvalidPeriod(t *testing.T) {
	e := newTestEnv(t)
	body := e.createBody(e.a.ID.Hex())
	body["selection_start_date"] = body["selection_end_date"]

	rec := e.do(t, "POST", "/selection-processes", body,
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestHandleCreate_EmptyMemberOrder(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/selection-processes", e.createBody(),
		testutil.AsTestUser(e.manager), "", e.handler.HandleCreate)

	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestHandleCreate_ModuleDisabled(t *testing.T) {
	client, db := testutil.SetupTestClient(t)
	f := testutil.NewFixtures(t, db)
	h := selectionprocesses.NewHandler(db, client, zap.NewNop(), nil, &notify.Recorder{})

	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrganizationWithModules(ctx, "No Modules Club", nil)
	stable := f.CreateStable(ctx, org.ID, "South Stable")
	manager := f.CreateUser(ctx, "Maja Lind", "maja@test.com", "manager", &org.ID)
	f.CreateMembership(ctx, stable.ID, manager.ID, org.ID, "manager")
	member := f.CreateMember(ctx, stable, "Anna Berg", "anna@test.com")

	now := time.Now().UTC()
	body := map[string]any{
		"stable_id":            stable.ID.Hex(),
		"name":                 "Round",
		"selection_start_date": now.Add(24 * time.Hour),
		"selection_end_date":   now.Add(48 * time.Hour),
		"algorithm":            models.AlgorithmManual,
		"member_order":         []string{member.ID.Hex()},
	}
	req := testutil.JSONRequest(t, "POST", "/selection-processes", body)
	req = testutil.WithUser(req, testutil.AsTestUser(manager))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	assertError(t, rec, http.StatusForbidden, "forbidden")
}

func TestHandleCreate_MemberForbidden(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/selection-processes", e.createBody(e.a.ID.Hex()),
		testutil.AsTestUser(e.a), "", e.handler.HandleCreate)

	// Access denial is shaped as not-found.
	assertError(t, rec, http.StatusNotFound, "not_found")
}

/* --- start --- */

func TestHandleStart_ActivatesFirstTurn(t *testing.T) {
	e := newTestEnv(t)
	p := e.createDraft(t, e.a.ID.Hex(), e.b.ID.Hex(), e.c.ID.Hex())

	rec := e.do(t, "POST", "/x", nil, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleStart)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := e.loadProcess(t, p.ID)
	if got.Status != models.ProcessActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.CurrentTurnIndex != 0 {
		t.Errorf("current_turn_index = %d, want 0", got.CurrentTurnIndex)
	}
	if got.CurrentTurnUserID == nil || *got.CurrentTurnUserID != e.a.ID {
		t.Error("current_turn_user_id should point at the first member")
	}
	if got.Turns[0].Status != models.TurnActive {
		t.Errorf("turns[0].status = %q, want active", got.Turns[0].Status)
	}
	if got.Turns[1].Status != models.TurnPending || got.Turns[2].Status != models.TurnPending {
		t.Error("later turns should stay pending")
	}
	if got.StartedAt == nil {
		t.Error("started_at should be set")
	}
	if e.recorder.StartedCount() != 1 {
		t.Errorf("expected 1 turn-started notification, got %d", e.recorder.StartedCount())
	}
}

func TestHandleStart_NonDraftRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	rec := e.do(t, "POST", "/x", nil, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleStart)

	assertError(t, rec, http.StatusBadRequest, "state_error")
}

func TestHandleStart_EmptyTurnsRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateDraftProcess(ctx, e.org.ID, e.stable.ID, e.manager.ID)

	rec := e.do(t, "POST", "/x", nil, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleStart)

	assertError(t, rec, http.StatusBadRequest, "state_error")
}

/* --- complete-turn --- */

func (e *testEnv) completeTurn(t *testing.T, p models.SelectionProcess, as models.User) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, "POST", "/x", nil, testutil.AsTestUser(as), p.ID.Hex(), e.handler.HandleCompleteTurn)
}

func TestHandleCompleteTurn_AdvancesToNext(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b, e.c})

	rec := e.completeTurn(t, p, e.a)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ProcessCompleted bool    `json:"process_completed"`
		NextTurnUserID   *string `json:"next_turn_user_id"`
		CurrentTurnIndex int     `json:"current_turn_index"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.ProcessCompleted {
		t.Error("process should not be completed yet")
	}
	if resp.NextTurnUserID == nil || *resp.NextTurnUserID != e.b.ID.Hex() {
		t.Error("next_turn_user_id should be the second member")
	}
	if resp.CurrentTurnIndex != 1 {
		t.Errorf("current_turn_index = %d, want 1", resp.CurrentTurnIndex)
	}

	got := e.loadProcess(t, p.ID)
	if got.Turns[0].Status != models.TurnCompleted || got.Turns[0].CompletedAt == nil {
		t.Error("first turn should be completed with a timestamp")
	}
	if got.Turns[1].Status != models.TurnActive {
		t.Error("second turn should be active")
	}
	if got.CurrentTurnUserID == nil || *got.CurrentTurnUserID != e.b.ID {
		t.Error("current_turn_user_id should be the second member")
	}
	if e.recorder.StartedCount() != 1 {
		t.Errorf("expected turn-started notification for next member, got %d", e.recorder.StartedCount())
	}
}

func TestHandleCompleteTurn_WrongUserForbidden(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	rec := e.completeTurn(t, p, e.b)
	assertError(t, rec, http.StatusForbidden, "forbidden")

	got := e.loadProcess(t, p.ID)
	if got.CurrentTurnIndex != 0 || got.Turns[0].Status != models.TurnActive {
		t.Error("state must be unchanged after a forbidden attempt")
	}
}

func TestHandleCompleteTurn_NoManagerOverride(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	// Turn advancement is self-service only; managers have no override.
	rec := e.completeTurn(t, p, e.manager)
	assertError(t, rec, http.StatusForbidden, "forbidden")
}

func TestHandleCompleteTurn_WalksToCompletion(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b, e.c})

	for _, u := range []models.User{e.a, e.b} {
		rec := e.completeTurn(t, p, u)
		if rec.Code != http.StatusOK {
			t.Fatalf("advance as %s: expected 200, got %d", u.FullName, rec.Code)
		}
	}

	rec := e.completeTurn(t, p, e.c)
	if rec.Code != http.StatusOK {
		t.Fatalf("final turn: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ProcessCompleted bool `json:"process_completed"`
		CurrentTurnIndex int  `json:"current_turn_index"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.ProcessCompleted {
		t.Error("final call should report process_completed")
	}
	if resp.CurrentTurnIndex != -1 {
		t.Errorf("current_turn_index = %d, want -1", resp.CurrentTurnIndex)
	}

	got := e.loadProcess(t, p.ID)
	if got.Status != models.ProcessCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CurrentTurnUserID != nil {
		t.Error("current_turn_user_id should be cleared")
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	for i, turn := range got.Turns {
		if turn.Status != models.TurnCompleted {
			t.Errorf("turns[%d].status = %q, want completed", i, turn.Status)
		}
	}

	// Completion snapshot recorded for future rotation rounds.
	count, err := e.fixtures.DB().Collection("selection_histories").
		CountDocuments(ctx, bson.M{"process_id": p.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 history snapshot, got %d", count)
	}
	if e.recorder.CompletedCount() != 1 {
		t.Errorf("expected 1 process-completed notification, got %d", e.recorder.CompletedCount())
	}
}

func TestHandleCompleteTurn_TerminalRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessCancelled, []models.User{e.a})

	rec := e.completeTurn(t, p, e.a)
	assertError(t, rec, http.StatusBadRequest, "state_error")
}

/* --- cancel --- */

func TestHandleCancel_FromActive(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	rec := e.do(t, "POST", "/x", map[string]any{"reason": "Season postponed"},
		testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleCancel)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := e.loadProcess(t, p.ID)
	if got.Status != models.ProcessCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
	if got.CurrentTurnIndex != -1 || got.CurrentTurnUserID != nil {
		t.Error("turn pointers should be cleared on cancel")
	}
	if got.CancellationReason != "Season postponed" {
		t.Errorf("cancellation_reason = %q", got.CancellationReason)
	}
	if got.CancelledAt == nil || got.CancelledBy == nil {
		t.Error("cancelled_at and cancelled_by should be set")
	}
}

func TestHandleCancel_RequiresReason(t *testing.T) {
	e := newTestEnv(t)
	p := e.createDraft(t, e.a.ID.Hex())

	rec := e.do(t, "POST", "/x", map[string]any{"reason": ""},
		testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleCancel)

	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestHandleCancel_TerminalRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessCompleted, []models.User{e.a})

	rec := e.do(t, "POST", "/x", map[string]any{"reason": "too late"},
		testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleCancel)

	assertError(t, rec, http.StatusBadRequest, "state_error")
}

/* --- delete --- */

func TestHandleDelete_DraftWithSelections(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.createDraft(t, e.a.ID.Hex())

	sel := models.Selection{
		ID:        primitive.NewObjectID(),
		ProcessID: p.ID,
		UserID:    e.a.ID,
		RoutineID: primitive.NewObjectID(),
		Points:    2,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := e.fixtures.DB().Collection("selections").InsertOne(ctx, sel); err != nil {
		t.Fatalf("insert selection: %v", err)
	}

	rec := e.do(t, "DELETE", "/x", nil, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleDelete)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, coll := range []string{"selection_processes", "selections"} {
		var filter bson.M
		if coll == "selections" {
			filter = bson.M{"process_id": p.ID}
		} else {
			filter = bson.M{"_id": p.ID}
		}
		count, err := e.fixtures.DB().Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			t.Fatalf("CountDocuments(%s) failed: %v", coll, err)
		}
		if count != 0 {
			t.Errorf("%s: expected 0 documents after delete, got %d", coll, count)
		}
	}
}

func TestHandleDelete_ActiveRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	rec := e.do(t, "DELETE", "/x", nil, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleDelete)
	assertError(t, rec, http.StatusBadRequest, "state_error")
}

/* --- view --- */

func TestHandleView_MemberTurnContext(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b, e.c})

	rec := e.do(t, "GET", "/x", nil, testutil.AsTestUser(e.c), p.ID.Hex(), e.handler.HandleView)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserTurn *struct {
			Order      int    `json:"order"`
			Status     string `json:"status"`
			TurnsAhead int    `json:"turns_ahead"`
		} `json:"user_turn"`
		IsUsersTurn bool `json:"is_users_turn"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.UserTurn == nil {
		t.Fatal("expected user_turn for a participating member")
	}
	if resp.UserTurn.Order != 2 || resp.UserTurn.TurnsAhead != 2 {
		t.Errorf("user_turn = %+v, want order 2 with 2 turns ahead", resp.UserTurn)
	}
	if resp.IsUsersTurn {
		t.Error("is_users_turn should be false for the third member")
	}

	rec = e.do(t, "GET", "/x", nil, testutil.AsTestUser(e.a), p.ID.Hex(), e.handler.HandleView)
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.IsUsersTurn {
		t.Error("is_users_turn should be true for the current-turn member")
	}
}

func TestHandleView_OutsiderGetsNotFound(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	otherOrg := e.fixtures.CreateOrganization(ctx, "Other Club")
	outsider := e.fixtures.CreateUser(ctx, "Outside Olle", "olle@test.com", "member", &otherOrg.ID)

	rec := e.do(t, "GET", "/x", nil, testutil.AsTestUser(outsider), p.ID.Hex(), e.handler.HandleView)
	assertError(t, rec, http.StatusNotFound, "not_found")
}

func TestHandleView_MalformedID(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "GET", "/x", nil, testutil.AsTestUser(e.a), "not-a-hex-id", e.handler.HandleView)
	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

/* --- update --- */

func TestHandleUpdate_RebuildsTurns(t *testing.T) {
	e := newTestEnv(t)
	p := e.createDraft(t, e.a.ID.Hex(), e.b.ID.Hex())

	body := map[string]any{
		"name":         "Renamed Round",
		"member_order": []string{e.c.ID.Hex(), e.a.ID.Hex()},
	}
	rec := e.do(t, "PUT", "/x", body, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleUpdate)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := e.loadProcess(t, p.ID)
	if got.Name != "Renamed Round" {
		t.Errorf("name = %q", got.Name)
	}
	if len(got.Turns) != 2 || got.Turns[0].UserID != e.c.ID || got.Turns[1].UserID != e.a.ID {
		t.Error("turns should be rebuilt in the supplied order")
	}
	for i, turn := range got.Turns {
		if turn.Order != i || turn.Status != models.TurnPending {
			t.Errorf("turns[%d] = %+v, want order %d pending", i, turn, i)
		}
	}
}

func TestHandleUpdate_NonDraftRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	rec := e.do(t, "PUT", "/x", map[string]any{"name": "nope"},
		testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleUpdate)
	assertError(t, rec, http.StatusBadRequest, "state_error")
}

func TestHandleUpdate_InvalidMembersRejected(t *testing.T) {
	e := newTestEnv(t)
	p := e.createDraft(t, e.a.ID.Hex())
	stranger := primitive.NewObjectID()

	rec := e.do(t, "PUT", "/x", map[string]any{"member_order": []string{stranger.Hex()}},
		testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleUpdate)
	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

/* --- dates --- */

func TestHandleUpdateDates_ActiveOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	now := time.Now().UTC()
	body := map[string]any{
		"selection_start_date": now.Add(48 * time.Hour),
		"selection_end_date":   now.Add(21 * 24 * time.Hour),
	}
	rec := e.do(t, "PATCH", "/x", body, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleUpdateDates)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	draft := e.createDraftAfterCancel(t, ctx, p.ID)
	rec = e.do(t, "PATCH", "/x", body, testutil.AsTestUser(e.manager), draft.ID.Hex(), e.handler.HandleUpdateDates)
	assertError(t, rec, http.StatusBadRequest, "state_error")
}

func TestHandleUpdateDates_RejectsPastStart(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	now := time.Now().UTC()
	body := map[string]any{
		"selection_start_date": now.Add(-48 * time.Hour),
		"selection_end_date":   now.Add(21 * 24 * time.Hour),
	}
	rec := e.do(t, "PATCH", "/x", body, testutil.AsTestUser(e.manager), p.ID.Hex(), e.handler.HandleUpdateDates)
	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

// createDraftAfterCancel cancels the given active process so a fresh
// draft can be created despite the one-active-per-stable guard.
func (e *testEnv) createDraftAfterCancel(t *testing.T, ctx context.Context, activeID primitive.ObjectID) models.SelectionProcess {
	t.Helper()
	_, err := e.fixtures.DB().Collection("selection_processes").UpdateOne(ctx,
		bson.M{"_id": activeID},
		bson.M{"$set": bson.M{"status": models.ProcessCancelled, "current_turn_index": -1}})
	if err != nil {
		t.Fatalf("cancel active process: %v", err)
	}
	return e.createDraft(t, e.a.ID.Hex())
}

/* --- list --- */

func TestHandleList_FiltersByStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessCompleted, []models.User{e.a})
	e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a, e.b})

	target := "/selection-processes?stable_id=" + e.stable.ID.Hex() + "&status=" + models.ProcessActive
	rec := e.do(t, "GET", target, nil, testutil.AsTestUser(e.a), "", e.handler.HandleList)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Processes []struct {
			Status    string `json:"status"`
			TurnCount int    `json:"turn_count"`
		} `json:"processes"`
		Total int64 `json:"total"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Total != 1 || len(resp.Processes) != 1 {
		t.Fatalf("expected 1 active process, got total=%d len=%d", resp.Total, len(resp.Processes))
	}
	if resp.Processes[0].Status != models.ProcessActive || resp.Processes[0].TurnCount != 2 {
		t.Errorf("unexpected summary: %+v", resp.Processes[0])
	}
}

func TestHandleList_RequiresStableID(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "GET", "/selection-processes", nil, testutil.AsTestUser(e.a), "", e.handler.HandleList)
	assertError(t, rec, http.StatusBadRequest, "validation_error")
}

/* --- compute-order --- */

func TestHandleComputeOrder_RotationPrioritizesLast(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	// In the most recent round C went last, so C goes first now.
	e.fixtures.CreateHistory(ctx, e.org.ID, e.stable.ID,
		[]primitive.ObjectID{e.a.ID, e.b.ID, e.c.ID}, time.Now().UTC().Add(-24*time.Hour))

	now := time.Now().UTC()
	body := map[string]any{
		"stable_id":            e.stable.ID.Hex(),
		"algorithm":            models.AlgorithmRotation,
		"member_order":         []string{e.a.ID.Hex(), e.b.ID.Hex(), e.c.ID.Hex()},
		"selection_start_date": now.Add(24 * time.Hour),
		"selection_end_date":   now.Add(48 * time.Hour),
	}
	rec := e.do(t, "POST", "/x", body, testutil.AsTestUser(e.manager), "", e.handler.HandleComputeOrder)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		MemberOrder []struct {
			UserID string `json:"user_id"`
		} `json:"member_order"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	want := []string{e.c.ID.Hex(), e.b.ID.Hex(), e.a.ID.Hex()}
	if len(resp.MemberOrder) != 3 {
		t.Fatalf("expected 3 members, got %d", len(resp.MemberOrder))
	}
	for i, m := range resp.MemberOrder {
		if m.UserID != want[i] {
			t.Errorf("member_order[%d] = %s, want %s", i, m.UserID, want[i])
		}
	}
}

func TestHandleComputeOrder_QuotaSplitsPointPool(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	start, end := now.Add(24*time.Hour), now.Add(14*24*time.Hour)
	// 100 points inside the period, 50 outside it.
	e.fixtures.CreateRoutineInstance(ctx, e.stable.ID, 60, start.Add(time.Hour))
	e.fixtures.CreateRoutineInstance(ctx, e.stable.ID, 40, start.Add(48*time.Hour))
	e.fixtures.CreateRoutineInstance(ctx, e.stable.ID, 50, end.Add(time.Hour))

	body := map[string]any{
		"stable_id":            e.stable.ID.Hex(),
		"algorithm":            models.AlgorithmQuotaBased,
		"member_order":         []string{e.a.ID.Hex(), e.b.ID.Hex(), e.c.ID.Hex()},
		"selection_start_date": start,
		"selection_end_date":   end,
	}
	rec := e.do(t, "POST", "/x", body, testutil.AsTestUser(e.manager), "", e.handler.HandleComputeOrder)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		QuotaPerMember       float64 `json:"quota_per_member"`
		TotalAvailablePoints float64 `json:"total_available_points"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.TotalAvailablePoints != 100 {
		t.Errorf("total_available_points = %v, want 100", resp.TotalAvailablePoints)
	}
	if resp.QuotaPerMember != 33.3 {
		t.Errorf("quota_per_member = %v, want 33.3", resp.QuotaPerMember)
	}
}

/* --- selections --- */

func TestHandleListSelections(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fixtures.CreateProcessWithTurns(ctx, e.org.ID, e.stable.ID, e.manager.ID,
		models.ProcessActive, []models.User{e.a})

	sel := models.Selection{
		ID:        primitive.NewObjectID(),
		ProcessID: p.ID,
		UserID:    e.a.ID,
		RoutineID: primitive.NewObjectID(),
		Points:    3,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := e.fixtures.DB().Collection("selections").InsertOne(ctx, sel); err != nil {
		t.Fatalf("insert selection: %v", err)
	}

	rec := e.do(t, "GET", "/x", nil, testutil.AsTestUser(e.a), p.ID.Hex(), e.handler.HandleListSelections)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Selections []models.Selection `json:"selections"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Selections) != 1 || resp.Selections[0].ID != sel.ID {
		t.Errorf("expected the inserted selection, got %+v", resp.Selections)
	}
}
