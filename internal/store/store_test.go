package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"campusevents/internal/model"
	"campusevents/internal/store"
	"campusevents/internal/testutil"
)

func TestCreateAndGetUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	now := time.Now()
	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         model.RoleStudent,
		Approved:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if user.Role != model.RoleStudent {
		t.Errorf("role = %q; want %q", user.Role, model.RoleStudent)
	}

	byEmail, err := q.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %d; want %d", byEmail.ID, user.ID)
	}

	_, err = q.GetUserByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestEmailInUse(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	user := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleTeacher, true)

	inUse, err := q.EmailInUse(ctx, "bob@example.com", 0)
	if err != nil {
		t.Fatalf("EmailInUse: %v", err)
	}
	if !inUse {
		t.Error("expected email to be in use")
	}

	inUse, err = q.EmailInUse(ctx, "bob@example.com", user.ID)
	if err != nil {
		t.Fatalf("EmailInUse: %v", err)
	}
	if inUse {
		t.Error("expected email to be free when excluding its owner")
	}
}

func TestUpdateUserRoleResetsApproval(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	user := testutil.CreateUser(t, db, "Carol", "carol@example.com", model.RoleStudent, true)

	err := q.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		Role:      model.RoleTeacher,
		Approved:  false,
		UpdatedAt: time.Now(),
		ID:        user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	got, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Role != model.RoleTeacher {
		t.Errorf("role = %q; want %q", got.Role, model.RoleTeacher)
	}
	if got.Approved {
		t.Error("expected approval to be reset")
	}
	if got.ApprovedBy.Valid || got.ApprovedAt.Valid {
		t.Error("expected approval stamps to be cleared")
	}
}

func TestApproveUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	teacher := testutil.CreateUser(t, db, "Teacher", "teacher@example.com", model.RoleTeacher, false)

	err := q.ApproveUser(ctx, store.ApproveUserParams{
		ApprovedBy: admin.ID,
		ApprovedAt: time.Now(),
		ID:         teacher.ID,
	})
	if err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}

	got, err := q.GetUserByID(ctx, teacher.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.Approved {
		t.Error("expected user to be approved")
	}
	if !got.ApprovedBy.Valid || got.ApprovedBy.Int64 != admin.ID {
		t.Errorf("approved_by = %+v; want %d", got.ApprovedBy, admin.ID)
	}
	if !got.ApprovedAt.Valid {
		t.Error("expected approved_at to be set")
	}
}

func TestDeleteUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	user := testutil.CreateUser(t, db, "Dave", "dave@example.com", model.RoleStudent, true)

	if err := q.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	_, err := q.GetUserByID(ctx, user.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestCountUsersByRole(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	testutil.CreateUser(t, db, "S1", "s1@example.com", model.RoleStudent, true)
	testutil.CreateUser(t, db, "S2", "s2@example.com", model.RoleStudent, true)
	testutil.CreateUser(t, db, "T1", "t1@example.com", model.RoleTeacher, false)

	students, err := q.CountUsersByRole(ctx, model.RoleStudent)
	if err != nil {
		t.Fatalf("CountUsersByRole: %v", err)
	}
	if students != 2 {
		t.Errorf("students = %d; want 2", students)
	}

	pending, err := q.CountPendingTeachers(ctx)
	if err != nil {
		t.Fatalf("CountPendingTeachers: %v", err)
	}
	if pending != 1 {
		t.Errorf("pending teachers = %d; want 1", pending)
	}
}

func TestEventLifecycle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	teacher := testutil.CreateUser(t, db, "Teacher", "teacher@example.com", model.RoleTeacher, true)

	ev := testutil.CreateEvent(t, db, "Open Day", teacher)
	if ev.Status != model.StatusPending {
		t.Fatalf("new event status = %q; want %q", ev.Status, model.StatusPending)
	}

	err := q.SetEventStatus(ctx, store.SetEventStatusParams{
		Status:     model.StatusApproved,
		ApprovedBy: admin.ID,
		ApprovedAt: time.Now(),
		ID:         ev.ID,
	})
	if err != nil {
		t.Fatalf("SetEventStatus: %v", err)
	}

	got, err := q.GetEventByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetEventByID: %v", err)
	}
	if got.Status != model.StatusApproved {
		t.Errorf("status = %q; want %q", got.Status, model.StatusApproved)
	}
	if !got.ApprovedBy.Valid || got.ApprovedBy.Int64 != admin.ID {
		t.Errorf("approved_by = %+v; want %d", got.ApprovedBy, admin.ID)
	}

	if err := q.UpdateEvent(ctx, store.UpdateEventParams{
		Title:       "Open Day 2026",
		Description: got.Description,
		Image:       got.Image,
		ID:          ev.ID,
	}); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, _ = q.GetEventByID(ctx, ev.ID)
	if got.Title != "Open Day 2026" {
		t.Errorf("title = %q; want %q", got.Title, "Open Day 2026")
	}
	if got.Status != model.StatusApproved {
		t.Errorf("content update changed status to %q", got.Status)
	}

	if err := q.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	_, err = q.GetEventByID(ctx, ev.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestListEventsByStatus(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	teacher := testutil.CreateUser(t, db, "Teacher", "teacher@example.com", model.RoleTeacher, true)

	first := testutil.CreateEvent(t, db, "First", teacher)
	testutil.CreateEvent(t, db, "Second", teacher)
	testutil.CreateEvent(t, db, "Third", admin)

	if err := q.SetEventStatus(ctx, store.SetEventStatusParams{
		Status:     model.StatusApproved,
		ApprovedBy: admin.ID,
		ApprovedAt: time.Now(),
		ID:         first.ID,
	}); err != nil {
		t.Fatalf("SetEventStatus: %v", err)
	}

	approved, err := q.ListEventsByStatus(ctx, model.StatusApproved)
	if err != nil {
		t.Fatalf("ListEventsByStatus: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != first.ID {
		t.Errorf("approved = %+v; want only event %d", approved, first.ID)
	}

	pending, err := q.CountEventsByStatus(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("CountEventsByStatus: %v", err)
	}
	if pending != 2 {
		t.Errorf("pending = %d; want 2", pending)
	}

	mine, err := q.ListEventsByCreator(ctx, store.ListEventsByCreatorParams{
		CreatedByRole: model.RoleTeacher,
		CreatedByID:   teacher.ID,
	})
	if err != nil {
		t.Fatalf("ListEventsByCreator: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("creator events = %d; want 2", len(mine))
	}
}

func TestAuditEntries(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)

	old := time.Now().Add(-48 * time.Hour)
	for i, created := range []time.Time{old, time.Now()} {
		err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
			Level:     "warn",
			Category:  "auth",
			Message:   "login failed",
			Metadata:  "{}",
			CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("CreateAuditEntry %d: %v", i, err)
		}
	}

	total, err := q.CountAuditEntries(ctx)
	if err != nil {
		t.Fatalf("CountAuditEntries: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d; want 2", total)
	}

	deleted, err := q.DeleteAuditEntriesBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteAuditEntriesBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d; want 1", deleted)
	}

	entries, err := q.ListAuditEntries(ctx, store.ListAuditEntriesParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d; want 1", len(entries))
	}
}

func TestSeedAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := store.SeedAdmin(ctx, db, "root@example.com", "longenoughpw"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	user, err := store.New(db).GetUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user.Role != model.RoleAdmin || !user.Approved {
		t.Errorf("seeded user = %+v; want approved admin", user)
	}

	// Seeding again is a no-op.
	if err := store.SeedAdmin(ctx, db, "root@example.com", "longenoughpw"); err != nil {
		t.Fatalf("SeedAdmin (second run): %v", err)
	}
}
