package organizations_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paddockops/equihub/internal/app/features/organizations"
	"github.com/paddockops/equihub/internal/app/system/modules"
	"github.com/paddockops/equihub/internal/domain/models"
	"github.com/paddockops/equihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*organizations.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := organizations.NewHandler(db, zap.NewNop(), nil)
	return h, testutil.NewFixtures(t, db)
}

func registerBody(orgName, adminName, email, password string) map[string]string {
	return map[string]string{
		"organization_name": orgName,
		"admin_name":        adminName,
		"email":             email,
		"password":          password,
	}
}

func TestHandleRegister_CreatesOrgAndAdmin(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	body := registerBody("Birchwood Riding Club", "Greta Holm", "greta@birchwood.example", "correct-horse")
	body["city"] = "Uppsala"
	body["country"] = "Sweden"
	body["time_zone"] = "Europe/Stockholm"
	req := testutil.JSONRequest(t, "POST", "/api/organizations/register", body)
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Organization models.Organization `json:"organization"`
		AdminUserID  string              `json:"admin_user_id"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Organization.Name != "Birchwood Riding Club" || resp.Organization.City != "Uppsala" {
		t.Errorf("unexpected organization: %+v", resp.Organization)
	}
	if len(resp.Organization.Modules) != 1 || resp.Organization.Modules[0] != modules.SelectionProcesses {
		t.Errorf("expected selection processes enabled by default, got %v", resp.Organization.Modules)
	}

	var admin models.User
	err := f.DB().Collection("users").FindOne(ctx, bson.M{"email_ci": "greta@birchwood.example"}).Decode(&admin)
	if err != nil {
		t.Fatalf("load admin user: %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("expected admin role, got %q", admin.Role)
	}
	if admin.OrganizationID == nil || *admin.OrganizationID != resp.Organization.ID {
		t.Errorf("admin not attached to the new organization: %+v", admin.OrganizationID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.JSONRequest(t, "POST", "/api/organizations/register", map[string]string{
		"organization_name": "",
		"admin_name":        "",
		"email":             "not-an-email",
		"password":          "short",
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	testutil.DecodeJSON(t, rec, &envelope)
	if envelope.Error != "validation_error" {
		t.Errorf("expected validation_error, got %q", envelope.Error)
	}
	if len(envelope.Details) != 4 {
		t.Errorf("expected 4 problems, got %v", envelope.Details)
	}
}

func TestHandleRegister_DuplicateOrgName(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := testutil.EnsureOrganizationNameIndex(ctx, f.DB()); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	f.CreateOrganization(ctx, "Birchwood Riding Club")

	req := testutil.JSONRequest(t, "POST", "/api/organizations/register",
		registerBody("Birchwood Riding Club", "Greta Holm", "greta@birchwood.example", "correct-horse"))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRegister_DuplicateEmailRollsBackOrg(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := testutil.EnsureUserEmailIndex(ctx, f.DB()); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	other := f.CreateOrganization(ctx, "Existing Org")
	f.CreateUser(ctx, "Greta Holm", "greta@birchwood.example", "member", &other.ID)

	req := testutil.JSONRequest(t, "POST", "/api/organizations/register",
		registerBody("Birchwood Riding Club", "Greta Holm", "greta@birchwood.example", "correct-horse"))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	// The half-created organization must not survive.
	n, err := f.DB().Collection("organizations").CountDocuments(ctx, bson.M{"name": "Birchwood Riding Club"})
	if err != nil {
		t.Fatalf("count organizations: %v", err)
	}
	if n != 0 {
		t.Errorf("expected orphaned organization to be rolled back, found %d", n)
	}
}

func TestHandleView_OwnOrganization(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrganization(ctx, "Birchwood Riding Club")

	req := testutil.JSONRequest(t, "GET", "/api/organizations", nil)
	req = testutil.WithUser(req, testutil.MemberUser(org.ID))
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Organization
	testutil.DecodeJSON(t, rec, &got)
	if got.ID != org.ID || got.Name != "Birchwood Riding Club" {
		t.Errorf("unexpected organization: %+v", got)
	}
}

func TestHandleSetModules(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrganization(ctx, "Birchwood Riding Club")

	req := testutil.JSONRequest(t, "PUT", "/api/organizations/modules", map[string][]string{
		"modules": {modules.SelectionProcesses, modules.Lessons, modules.SelectionProcesses},
	})
	req = testutil.WithUser(req, testutil.AdminUser(org.ID))
	rec := httptest.NewRecorder()
	h.HandleSetModules(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Organization
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Modules) != 2 || got.Modules[0] != modules.SelectionProcesses || got.Modules[1] != modules.Lessons {
		t.Errorf("unexpected modules after dedupe: %v", got.Modules)
	}
}

func TestHandleSetModules_RejectsUnknownKey(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrganization(ctx, "Birchwood Riding Club")

	req := testutil.JSONRequest(t, "PUT", "/api/organizations/modules", map[string][]string{
		"modules": {"grooming"},
	})
	req = testutil.WithUser(req, testutil.AdminUser(org.ID))
	rec := httptest.NewRecorder()
	h.HandleSetModules(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSetModules_AdminOnly(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrganization(ctx, "Birchwood Riding Club")

	req := testutil.JSONRequest(t, "PUT", "/api/organizations/modules", map[string][]string{
		"modules": {modules.Invoicing},
	})
	req = testutil.WithUser(req, testutil.ManagerUser(org.ID))
	rec := httptest.NewRecorder()
	h.HandleSetModules(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
