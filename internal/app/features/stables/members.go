// internal/app/features/stables/members.go
package stables

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	membershipstore "github.com/paddockops/equihub/internal/app/store/memberships"
	"github.com/paddockops/equihub/internal/app/system/authz"
	"github.com/paddockops/equihub/internal/app/system/timeouts"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleListMembers returns the stable's roster with display fields,
// optionally filtered by role (?role=manager|member).
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := stableID(w, r)
	if !ok {
		return
	}
	st, ok := h.loadStable(w, r, id)
	if !ok {
		return
	}
	if !h.requireView(w, r, st) {
		return
	}

	role := r.URL.Query().Get("role")
	if role != "" && role != "manager" && role != "member" {
		apierrors.BadRequest(w, `role must be "manager" or "member".`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := h.memberships.ListByStable(ctx, st.ID, role)
	if err != nil {
		h.Errors.LogServerError(w, r, "list stable members", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.Errors.LogServerError(w, r, "load member users", err)
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]memberEntry, 0, len(memberships))
	for _, m := range memberships {
		u := byID[m.UserID]
		entries = append(entries, memberEntry{
			UserID:   m.UserID,
			FullName: u.FullName,
			Email:    u.Email,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, membersResponse{Members: entries})
}

// HandleAddMember joins a user to the stable as manager or member.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := stableID(w, r)
	if !ok {
		return
	}
	st, ok := h.loadStable(w, r, id)
	if !ok {
		return
	}
	if !h.requireManage(w, r, st) {
		return
	}

	var req addMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		apierrors.BadRequest(w, "user_id must be a valid ID.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.memberships.Add(ctx, st.ID, userID, req.Role); err != nil {
		switch {
		case errors.Is(err, membershipstore.ErrDuplicateMembership):
			apierrors.Conflict(w, "This user is already a member of the stable.")
		case errors.Is(err, mongo.ErrNoDocuments):
			apierrors.BadRequest(w, "No such user.")
		case errors.Is(err, membershipstore.ErrBadRole),
			errors.Is(err, membershipstore.ErrOrgMismatch),
			errors.Is(err, membershipstore.ErrMissingOrgID):
			apierrors.BadRequest(w, err.Error())
		default:
			h.Errors.LogServerError(w, r, "add stable member", err)
		}
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventMemberAdded, actorID, &st.OrganizationID, map[string]string{
		"stable_id": st.ID.Hex(),
		"user_id":   userID.Hex(),
		"role":      req.Role,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember removes a user from the stable. A member who holds
// a turn in the stable's active selection process cannot be removed.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "")
		return
	}

	id, ok := stableID(w, r)
	if !ok {
		return
	}
	st, ok := h.loadStable(w, r, id)
	if !ok {
		return
	}
	if !h.requireManage(w, r, st) {
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apierrors.NotFound(w, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	active, err := h.processes.GetActiveForStable(ctx, st.ID)
	if err != nil {
		h.Errors.LogServerError(w, r, "check active process", err)
		return
	}
	if active != nil {
		for _, turn := range active.Turns {
			if turn.UserID == userID {
				apierrors.Conflict(w, "This member holds a turn in the active selection process. Cancel the process first.")
				return
			}
		}
	}

	if err := h.memberships.Remove(ctx, st.ID, userID); err != nil {
		h.Errors.LogServerError(w, r, "remove stable member", err)
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventMemberRemoved, actorID, &st.OrganizationID, map[string]string{
		"stable_id": st.ID.Hex(),
		"user_id":   userID.Hex(),
	})

	w.WriteHeader(http.StatusNoContent)
}
