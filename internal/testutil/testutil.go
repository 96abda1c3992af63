// Package testutil provides shared test helpers for the campusevents project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"campusevents/internal/model"
	"campusevents/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "campusevents-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// CreateUser inserts a user with sane defaults and returns the stored record.
// The password hash is a fixed argon2id digest, not derived from any password.
func CreateUser(t *testing.T, db *sql.DB, name, email string, role model.Role, approved bool) model.User {
	t.Helper()

	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c29tZXNhbHQ$RdescudvJCsgt3ub+b+dWRWJTmaaJObG",
		Role:         role,
		Approved:     approved,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// CreateEvent inserts a pending event for the given creator and returns it.
func CreateEvent(t *testing.T, db *sql.DB, title string, creator model.User) model.Event {
	t.Helper()

	ev, err := store.New(db).CreateEvent(context.Background(), store.CreateEventParams{
		Title:         title,
		Description:   "description of " + title,
		CreatedByRole: creator.Role,
		CreatedByID:   creator.ID,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("creating test event: %v", err)
	}
	return ev
}
