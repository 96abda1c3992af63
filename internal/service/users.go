package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"campusevents/internal/auth"
	"campusevents/internal/model"
	"campusevents/internal/store"
)

// RegisterInput carries the fields for account self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserService implements account registration, authentication and the
// admin-side user administration rules.
type UserService struct {
	queries *store.Queries
	audit   *AuditService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, audit *AuditService) *UserService {
	return &UserService{queries: store.New(db), audit: audit}
}

// Register creates a new account. Students are active immediately; teachers
// start unapproved and cannot act until an admin approves them. Nobody can
// self-register as admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	fields := make(map[string]string)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "is required"
	} else if len(name) > 255 {
		fields["name"] = "must be at most 255 characters"
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "must be a valid email address"
	}

	if len(in.Password) < auth.MinPasswordLen {
		fields["password"] = "must be at least 8 characters"
	}

	role, ok := model.NormalizeRole(in.Role)
	if !ok || role == model.RoleAdmin {
		fields["role"] = "must be student or teacher"
	}

	if err := newValidationError(fields); err != nil {
		return model.User{}, err
	}

	taken, err := s.queries.EmailInUse(ctx, email, 0)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, ErrEmailTaken
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Approved:     role == model.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, err
	}

	s.audit.LogAuth(ctx, AuditLevelInfo, "account registered", &user.ID, "", map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})

	return user, nil
}

// Authenticate verifies credentials and returns the account. A wrong email
// and a wrong password are indistinguishable to the caller. Teachers whose
// account is still pending fail with ErrPendingApproval, but only after
// their password checked out.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return model.User{}, ErrInvalidCredentials
	}

	if user.PendingApproval() {
		return model.User{}, ErrPendingApproval
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			})
		}
	}

	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// UpdateProfile changes the actor's own name and email.
func (s *UserService) UpdateProfile(ctx context.Context, actor model.User, name, email string) (model.User, error) {
	fields := make(map[string]string)

	name = strings.TrimSpace(name)
	if name == "" {
		fields["name"] = "is required"
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "must be a valid email address"
	}

	if err := newValidationError(fields); err != nil {
		return model.User{}, err
	}

	taken, err := s.queries.EmailInUse(ctx, email, actor.ID)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, ErrEmailTaken
	}

	if err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		Name:      name,
		Email:     email,
		UpdatedAt: time.Now(),
		ID:        actor.ID,
	}); err != nil {
		return model.User{}, err
	}

	return s.queries.GetUserByID(ctx, actor.ID)
}

// ChangePassword changes the actor's own password after verifying the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, actor model.User, current, newPassword string) error {
	ok, err := auth.CheckPassword(current, actor.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	if len(newPassword) < auth.MinPasswordLen {
		return &ValidationError{Fields: map[string]string{"password": "must be at least 8 characters"}}
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: newHash,
		UpdatedAt:    time.Now(),
		ID:           actor.ID,
	})
}

// Get returns a user by ID. Admin only.
func (s *UserService) Get(ctx context.Context, actor model.User, id int64) (model.User, error) {
	if !actor.IsAdmin() {
		return model.User{}, ErrForbidden
	}

	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// List returns all accounts, newest first. Admin only.
func (s *UserService) List(ctx context.Context, actor model.User) ([]model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.queries.ListUsers(ctx)
}

// Delete removes an account. Admin only, and never the admin's own.
func (s *UserService) Delete(ctx context.Context, actor model.User, targetID int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if !model.CanAdministerUser(actor.ID, targetID, model.UserActionDelete) {
		return ErrSelfModification
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.queries.DeleteUser(ctx, target.ID); err != nil {
		return err
	}

	s.audit.LogUser(ctx, AuditLevelWarning, "account deleted", &actor.ID, map[string]any{
		"target_id":    target.ID,
		"target_email": target.Email,
	})

	return nil
}

// ChangeRole moves an account to a different role. Admin only, never on the
// admin's own account. Promotion to teacher re-enters the approval queue:
// whatever trust the account had in its old role does not carry over.
func (s *UserService) ChangeRole(ctx context.Context, actor model.User, targetID int64, rawRole string) (model.User, error) {
	if !actor.IsAdmin() {
		return model.User{}, ErrForbidden
	}
	if !model.CanAdministerUser(actor.ID, targetID, model.UserActionChangeRole) {
		return model.User{}, ErrSelfModification
	}

	role, ok := model.NormalizeRole(rawRole)
	if !ok {
		return model.User{}, &ValidationError{Fields: map[string]string{"role": "must be student, teacher or admin"}}
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}

	if err := s.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		Role:      role,
		Approved:  role != model.RoleTeacher,
		UpdatedAt: time.Now(),
		ID:        target.ID,
	}); err != nil {
		return model.User{}, err
	}

	s.audit.LogUser(ctx, AuditLevelInfo, "role changed", &actor.ID, map[string]any{
		"target_id": target.ID,
		"from":      target.Role,
		"to":        role,
	})

	return s.queries.GetUserByID(ctx, target.ID)
}

// Approve activates a pending teacher account. Admin only.
func (s *UserService) Approve(ctx context.Context, actor model.User, targetID int64) (model.User, error) {
	if !actor.Role.CanApprove() {
		return model.User{}, ErrForbidden
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}

	// Re-approving keeps the original decision record intact.
	if target.Approved {
		return target, nil
	}

	if err := s.queries.ApproveUser(ctx, store.ApproveUserParams{
		ApprovedBy: actor.ID,
		ApprovedAt: time.Now(),
		ID:         target.ID,
	}); err != nil {
		return model.User{}, err
	}

	s.audit.LogUser(ctx, AuditLevelInfo, "account approved", &actor.ID, map[string]any{
		"target_id": target.ID,
	})

	return s.queries.GetUserByID(ctx, target.ID)
}

// ResetPassword sets a new password on the target account. Admin only.
func (s *UserService) ResetPassword(ctx context.Context, actor model.User, targetID int64, newPassword string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	if len(newPassword) < auth.MinPasswordLen {
		return &ValidationError{Fields: map[string]string{"password": "must be at least 8 characters"}}
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: newHash,
		UpdatedAt:    time.Now(),
		ID:           target.ID,
	}); err != nil {
		return err
	}

	s.audit.LogUser(ctx, AuditLevelWarning, "password reset by admin", &actor.ID, map[string]any{
		"target_id": target.ID,
	})

	return nil
}

// Stats summarizes the account and moderation queues for the dashboard.
type Stats struct {
	Students        int64 `json:"students"`
	Teachers        int64 `json:"teachers"`
	Admins          int64 `json:"admins"`
	PendingTeachers int64 `json:"pending_teachers"`
	PendingEvents   int64 `json:"pending_events"`
	ApprovedEvents  int64 `json:"approved_events"`
	RejectedEvents  int64 `json:"rejected_events"`
}

// GetStats collects dashboard counts. Admin only.
func (s *UserService) GetStats(ctx context.Context, actor model.User) (Stats, error) {
	if !actor.IsAdmin() {
		return Stats{}, ErrForbidden
	}

	var stats Stats
	var err error

	if stats.Students, err = s.queries.CountUsersByRole(ctx, model.RoleStudent); err != nil {
		return Stats{}, err
	}
	if stats.Teachers, err = s.queries.CountUsersByRole(ctx, model.RoleTeacher); err != nil {
		return Stats{}, err
	}
	if stats.Admins, err = s.queries.CountUsersByRole(ctx, model.RoleAdmin); err != nil {
		return Stats{}, err
	}
	if stats.PendingTeachers, err = s.queries.CountPendingTeachers(ctx); err != nil {
		return Stats{}, err
	}
	if stats.PendingEvents, err = s.queries.CountEventsByStatus(ctx, model.StatusPending); err != nil {
		return Stats{}, err
	}
	if stats.ApprovedEvents, err = s.queries.CountEventsByStatus(ctx, model.StatusApproved); err != nil {
		return Stats{}, err
	}
	if stats.RejectedEvents, err = s.queries.CountEventsByStatus(ctx, model.StatusRejected); err != nil {
		return Stats{}, err
	}

	return stats, nil
}
