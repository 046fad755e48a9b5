// internal/app/features/login/login.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/auth"
	"github.com/paddockops/equihub/internal/app/system/ratelimit"
	"github.com/paddockops/equihub/internal/app/system/status"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// HandleLogin processes POST /api/login.
//
// Not-found and wrong-password both answer the same 401 so the endpoint
// cannot be used to probe which emails have accounts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Request body must be valid JSON.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		apierrors.BadRequest(w, "Email and password are required.")
		return
	}

	if allowed, reason := h.limiter.Check(r, req.Email); !allowed {
		h.Log.Warn("login rate limited",
			zap.String("ip", ratelimit.ClientIP(r)))
		apierrors.Write(w, http.StatusTooManyRequests, apierrors.CategoryForbidden, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, req.Email, "no account")
			apierrors.Unauthorized(w, "Invalid email or password.")
			return
		}
		h.Errors.LogServerError(w, r, "login: user lookup failed", err)
		return
	}

	if u.Status != "" && u.Status != status.Active {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, &u.ID, req.Email, "account disabled")
		apierrors.Unauthorized(w, "Invalid email or password.")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, req.Email, "wrong password")
		apierrors.Unauthorized(w, "Invalid email or password.")
		return
	}

	sessionUser := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.OrganizationID != nil {
		sessionUser.OrganizationID = u.OrganizationID.Hex()
	}
	if err := h.SessionMgr.SignIn(w, r, sessionUser); err != nil {
		h.Errors.LogServerError(w, r, "login: session write failed", err)
		return
	}
	h.limiter.ResetEmail(req.Email)

	if err := h.logins.CreateFrom(ctx, r, u.ID); err != nil {
		// Activity history is best effort; never block a valid sign-in.
		h.Log.Warn("login: record write failed", zap.Error(err))
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, u.OrganizationID, u.Email)

	resp := loginResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	}
	if u.OrganizationID != nil {
		resp.OrganizationID = u.OrganizationID.Hex()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
