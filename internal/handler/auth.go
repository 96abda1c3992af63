package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"campusevents/internal/middleware"
	"campusevents/internal/service"
	"campusevents/internal/session"
)

// AuthHandler handles login, logout and registration.
type AuthHandler struct {
	sessionManager *scs.SessionManager
	users          *service.UserService
	audit          *service.AuditService
	loginAttempts  *middleware.AttemptLimiter
	signupAttempts *middleware.AttemptLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sm *scs.SessionManager, users *service.UserService, audit *service.AuditService, login, signup *middleware.AttemptLimiter) *AuthHandler {
	return &AuthHandler{
		sessionManager: sm,
		users:          users,
		audit:          audit,
		loginAttempts:  login,
		signupAttempts: signup,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and establishes a session.
// Failed attempts count against the account email; once exhausted, further
// tries are refused for the rest of the window even with the right password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	clientIP := r.RemoteAddr

	if tooMany, remaining := h.loginAttempts.TooMany(req.Email); tooMany {
		h.audit.LogAuth(r.Context(), service.AuditLevelWarning, "login refused: too many attempts", nil, clientIP, map[string]any{"email": req.Email})
		writeJSONError(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many failed attempts; try again in %s", formatDuration(remaining)))
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.loginAttempts.Record(req.Email)
			h.audit.LogAuth(r.Context(), service.AuditLevelWarning, "login failed", nil, clientIP, map[string]any{"email": req.Email})
		}
		writeServiceError(w, r, err, "login error", "email", req.Email)
		return
	}

	h.loginAttempts.Reset(req.Email)

	// New session ID on privilege change, so a pre-login token is worthless.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	h.audit.LogAuth(r.Context(), service.AuditLevelInfo, "user logged in", &user.ID, clientIP, nil)

	resp := map[string]any{"user": user}
	if intended := h.sessionManager.PopString(r.Context(), session.KeyIntendedPath); intended != "" {
		resp["intended_path"] = intended
	}
	writeJSONSuccess(w, resp)
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), session.KeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if userID != 0 {
		h.audit.LogAuth(r.Context(), service.AuditLevelInfo, "user logged out", &userID, r.RemoteAddr, nil)
	}
	writeJSONSuccess(w, nil)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a new account. Registration is throttled per client IP.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	clientIP := r.RemoteAddr

	if tooMany, remaining := h.signupAttempts.TooMany(clientIP); tooMany {
		writeJSONError(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many registrations; try again in %s", formatDuration(remaining)))
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err, "registration error", "email", req.Email)
		return
	}

	h.signupAttempts.Record(clientIP)

	writeJSONSuccessStatus(w, http.StatusCreated, map[string]any{
		"user":             user,
		"pending_approval": user.PendingApproval(),
	})
}
