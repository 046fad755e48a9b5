package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/system/auth"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           string
	OrganizationID string
}

// AdminUser returns a TestUser with admin role in the given organization.
func AdminUser(orgID primitive.ObjectID) TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Admin",
		Email:          "admin@test.com",
		Role:           "admin",
		OrganizationID: orgID.Hex(),
	}
}

// ManagerUser returns a TestUser with manager role in the given organization.
func ManagerUser(orgID primitive.ObjectID) TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Manager",
		Email:          "manager@test.com",
		Role:           "manager",
		OrganizationID: orgID.Hex(),
	}
}

// MemberUser returns a TestUser with member role in the given organization.
func MemberUser(orgID primitive.ObjectID) TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Member",
		Email:          "member@test.com",
		Role:           "member",
		OrganizationID: orgID.Hex(),
	}
}

// AsTestUser converts a fixture user into the session shape handlers see.
func AsTestUser(u models.User) TestUser {
	tu := TestUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.OrganizationID != nil {
		tu.OrganizationID = u.OrganizationID.Hex()
	}
	return tu
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}
	return auth.WithTestUser(r, sessionUser)
}

// JSONRequest builds a request with a JSON-encoded body.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a response recorder's body into dst.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
