// internal/app/features/organizations/register.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	organizationstore "github.com/paddockops/equihub/internal/app/store/organizations"
	userstore "github.com/paddockops/equihub/internal/app/store/users"
	"github.com/paddockops/equihub/internal/app/system/modules"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// HandleRegister creates a new tenant: the organization plus its first
// admin user. The endpoint is public. New tenants start with the
// selection processes module enabled.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	orgName := sanitizeName(req.OrganizationName)
	adminName := sanitizeName(req.AdminName)
	email := strings.TrimSpace(req.Email)

	var problems []string
	if orgName == "" {
		problems = append(problems, "organization_name is required")
	}
	if adminName == "" {
		problems = append(problems, "admin_name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		problems = append(problems, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		apierrors.BadRequest(w, "Registration request is invalid.", problems...)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Errors.LogServerError(w, r, "hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.orgs.Create(ctx, models.Organization{
		Name:        orgName,
		City:        sanitizeName(req.City),
		Country:     sanitizeName(req.Country),
		TimeZone:    strings.TrimSpace(req.TimeZone),
		ContactInfo: sanitizeName(req.ContactInfo),
		Modules:     []string{modules.SelectionProcesses},
	})
	if err != nil {
		if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
			apierrors.Conflict(w, "An organization with this name already exists.")
			return
		}
		h.Errors.LogServerError(w, r, "create organization", err)
		return
	}

	admin, err := h.users.Create(ctx, models.User{
		FullName:       adminName,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           "admin",
		OrganizationID: &org.ID,
	})
	if err != nil {
		// The tenant is unusable without its admin; undo the org insert.
		if _, delErr := h.orgs.Delete(ctx, org.ID); delErr != nil {
			h.Log.Error("rollback organization after failed admin create",
				zap.String("org_id", org.ID.Hex()), zap.Error(delErr))
		}
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apierrors.Conflict(w, "A user with this email already exists.")
			return
		}
		h.Errors.LogServerError(w, r, "create admin user", err)
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventOrgCreated, admin.ID, &org.ID, map[string]string{
		"name":  org.Name,
		"email": admin.Email,
	})

	writeJSON(w, http.StatusCreated, registerResponse{
		Organization: org,
		AdminUserID:  admin.ID.Hex(),
	})
}
