package handler

import (
	"net/http"
	"strconv"

	"campusevents/internal/middleware"
	"campusevents/internal/service"
)

// UserHandler handles admin user management.
type UserHandler struct {
	users *service.UserService
	audit *service.AuditService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, audit *service.AuditService) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// List returns all accounts.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	users, err := h.users.List(r.Context(), *actor)
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}
	writeJSONSuccess(w, map[string]any{"users": users})
}

// Get returns a single account by ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), *actor, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get user", "user_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

// Delete removes an account. Admins cannot delete themselves.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), *actor, id); err != nil {
		writeServiceError(w, r, err, "failed to delete user", "user_id", id)
		return
	}
	writeJSONSuccess(w, nil)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole reassigns an account role. Promotion to teacher puts the
// account back into the approval queue.
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.ChangeRole(r.Context(), *actor, id, req.Role)
	if err != nil {
		writeServiceError(w, r, err, "failed to change role", "user_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

// Approve activates a pending teacher account.
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.users.Approve(r.Context(), *actor, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to approve user", "user_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets a new password on an account without knowing the old one.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.ResetPassword(r.Context(), *actor, id, req.Password); err != nil {
		writeServiceError(w, r, err, "failed to reset password", "user_id", id)
		return
	}
	writeJSONSuccess(w, nil)
}

// Stats returns dashboard counters.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	stats, err := h.users.GetStats(r.Context(), *actor)
	if err != nil {
		writeServiceError(w, r, err, "failed to collect stats")
		return
	}
	writeJSONSuccess(w, map[string]any{"stats": stats})
}

// Audit returns a page of the audit log, newest first.
func (h *UserHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	entries, total, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "failed to list audit entries")
		return
	}
	writeJSONSuccess(w, map[string]any{
		"entries": entries,
		"total":   total,
		"offset":  offset,
	})
}
