package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusevents/internal/auth"
	"campusevents/internal/model"
)

// SeedAdmin creates the initial admin account if no account with the given
// email exists. It is a no-op when the email is already registered, so it is
// safe to run on every startup.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	if len(password) < auth.MinPasswordLen {
		return fmt.Errorf("seed admin password must be at least %d characters", auth.MinPasswordLen)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Name:          "Administrator",
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          model.RoleAdmin,
		Approved:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}
