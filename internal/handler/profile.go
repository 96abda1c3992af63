package handler

import (
	"net/http"

	"campusevents/internal/middleware"
	"campusevents/internal/service"
)

// ProfileHandler handles the authenticated account's own endpoints.
type ProfileHandler struct {
	users *service.UserService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me returns the current account.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	writeJSONSuccess(w, map[string]any{"user": user})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile changes the current account's name and email.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), *actor, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, r, err, "failed to update profile", "user_id", actor.ID)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the current account's password after verifying
// the existing one.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), *actor, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err, "failed to change password", "user_id", actor.ID)
		return
	}
	writeJSONSuccess(w, nil)
}
