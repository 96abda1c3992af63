package service_test

import (
	"context"
	"errors"
	"testing"

	"campusevents/internal/model"
	"campusevents/internal/service"
	"campusevents/internal/testutil"
)

func registerUser(t *testing.T, us *service.UserService, name, email, role string) model.User {
	t.Helper()
	user, err := us.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "correct horse",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	return user
}

func TestRegisterStudentActiveImmediately(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	user := registerUser(t, us, "Sam", "sam@example.com", "student")
	if user.Role != model.RoleStudent {
		t.Errorf("role = %q, want student", user.Role)
	}
	if !user.Approved {
		t.Error("student should be approved on registration")
	}
}

func TestRegisterTeacherStartsPending(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	user := registerUser(t, us, "Tess", "tess@example.com", "teacher")
	if user.Approved {
		t.Error("teacher should start unapproved")
	}
	if !user.PendingApproval() {
		t.Error("PendingApproval() = false, want true")
	}
}

func TestRegisterRoleNormalized(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	user := registerUser(t, us, "Tess", "tess@example.com", "  TEACHER ")
	if user.Role != model.RoleTeacher {
		t.Errorf("role = %q, want teacher", user.Role)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	_, err := us.Register(context.Background(), service.RegisterInput{
		Name:     "Eve",
		Email:    "eve@example.com",
		Password: "correct horse",
		Role:     "admin",
	})
	if _, ok := service.AsValidationError(err); !ok {
		t.Errorf("err = %v, want ValidationError on role", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	tests := []struct {
		name  string
		in    service.RegisterInput
		field string
	}{
		{"empty name", service.RegisterInput{Email: "a@b.com", Password: "longenough", Role: "student"}, "name"},
		{"bad email", service.RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough", Role: "student"}, "email"},
		{"short password", service.RegisterInput{Name: "A", Email: "a@b.com", Password: "short", Role: "student"}, "password"},
		{"unknown role", service.RegisterInput{Name: "A", Email: "a@b.com", Password: "longenough", Role: "wizard"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := us.Register(context.Background(), tt.in)
			ve, ok := service.AsValidationError(err)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, present := ve.Fields[tt.field]; !present {
				t.Errorf("fields = %v, want %q flagged", ve.Fields, tt.field)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	registerUser(t, us, "First", "dup@example.com", "student")
	_, err := us.Register(context.Background(), service.RegisterInput{
		Name:     "Second",
		Email:    "DUP@example.com",
		Password: "correct horse",
		Role:     "student",
	})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	registerUser(t, us, "Sam", "sam@example.com", "student")

	user, err := us.Authenticate(context.Background(), "sam@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !user.LastLoginAt.Valid {
		t.Error("last login not recorded")
	}

	// Wrong password and unknown email read identically.
	if _, err := us.Authenticate(context.Background(), "sam@example.com", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := us.Authenticate(context.Background(), "ghost@example.com", "correct horse"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticatePendingTeacher(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	registerUser(t, us, "Tess", "tess@example.com", "teacher")

	_, err := us.Authenticate(context.Background(), "tess@example.com", "correct horse")
	if !errors.Is(err, service.ErrPendingApproval) {
		t.Errorf("err = %v, want ErrPendingApproval", err)
	}

	// A wrong password on a pending account stays invalid credentials, so
	// approval state leaks nothing to a guesser.
	_, err = us.Authenticate(context.Background(), "tess@example.com", "wrong")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestApproveTeacherUnblocksLogin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	teacher := registerUser(t, us, "Tess", "tess@example.com", "teacher")

	approved, err := us.Approve(context.Background(), admin, teacher.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !approved.Approved || !approved.ApprovedBy.Valid || approved.ApprovedBy.Int64 != admin.ID {
		t.Errorf("approval stamps = %+v, want approved by %d", approved, admin.ID)
	}

	if _, err := us.Authenticate(context.Background(), "tess@example.com", "correct horse"); err != nil {
		t.Errorf("Authenticate after approval: %v", err)
	}
}

func TestApproveAlreadyApprovedKeepsStamps(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	first := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	second := testutil.CreateUser(t, db, "Admin2", "admin2@example.com", model.RoleAdmin, true)
	teacher := registerUser(t, us, "Tess", "tess@example.com", "teacher")

	approved, err := us.Approve(context.Background(), first, teacher.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	again, err := us.Approve(context.Background(), second, teacher.ID)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if !again.Approved {
		t.Error("account should stay approved")
	}
	if again.ApprovedBy != approved.ApprovedBy {
		t.Errorf("approved_by = %v, want original %v kept", again.ApprovedBy, approved.ApprovedBy)
	}
	if !again.ApprovedAt.Time.Equal(approved.ApprovedAt.Time) {
		t.Errorf("approved_at = %v, want original %v kept", again.ApprovedAt.Time, approved.ApprovedAt.Time)
	}
}

func TestDeleteSelfRefused(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)

	err := us.Delete(context.Background(), admin, admin.ID)
	if !errors.Is(err, service.ErrSelfModification) {
		t.Errorf("err = %v, want ErrSelfModification", err)
	}
}

func TestDeleteOtherAccount(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	if err := us.Delete(context.Background(), admin, student.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := us.Delete(context.Background(), admin, student.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	teacher := testutil.CreateUser(t, db, "T", "t@example.com", model.RoleTeacher, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	if err := us.Delete(context.Background(), teacher, student.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestChangeRoleSelfRefused(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)

	_, err := us.ChangeRole(context.Background(), admin, admin.ID, "student")
	if !errors.Is(err, service.ErrSelfModification) {
		t.Errorf("err = %v, want ErrSelfModification", err)
	}
}

func TestChangeRolePromotionToTeacherResetsApproval(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	got, err := us.ChangeRole(context.Background(), admin, student.ID, "teacher")
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if got.Role != model.RoleTeacher {
		t.Errorf("role = %q, want teacher", got.Role)
	}
	if got.Approved {
		t.Error("promotion to teacher must re-enter the approval queue")
	}
}

func TestChangeRoleDemotionToStudentActivates(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	pending := testutil.CreateUser(t, db, "T", "t@example.com", model.RoleTeacher, false)

	got, err := us.ChangeRole(context.Background(), admin, pending.ID, "student")
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if got.Role != model.RoleStudent || !got.Approved {
		t.Errorf("got = %+v, want approved student", got)
	}
}

func TestChangeRoleInvalidRole(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	_, err := us.ChangeRole(context.Background(), admin, student.ID, "superuser")
	if _, ok := service.AsValidationError(err); !ok {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestResetPassword(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := registerUser(t, us, "Sam", "sam@example.com", "student")

	if err := us.ResetPassword(context.Background(), admin, student.ID, "brand new pw"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := us.Authenticate(context.Background(), "sam@example.com", "brand new pw"); err != nil {
		t.Errorf("Authenticate with new password: %v", err)
	}
	if _, err := us.Authenticate(context.Background(), "sam@example.com", "correct horse"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("old password err = %v, want ErrInvalidCredentials", err)
	}
}

func TestResetPasswordTooShort(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	err := us.ResetPassword(context.Background(), admin, student.ID, "short")
	if _, ok := service.AsValidationError(err); !ok {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestChangePassword(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	user := registerUser(t, us, "Sam", "sam@example.com", "student")

	if err := us.ChangePassword(context.Background(), user, "wrong", "new password"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("wrong current err = %v, want ErrInvalidCredentials", err)
	}

	if err := us.ChangePassword(context.Background(), user, "correct horse", "new password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := us.Authenticate(context.Background(), "sam@example.com", "new password"); err != nil {
		t.Errorf("Authenticate with new password: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	user := registerUser(t, us, "Sam", "sam@example.com", "student")
	registerUser(t, us, "Other", "other@example.com", "student")

	got, err := us.UpdateProfile(context.Background(), user, "Samuel", "samuel@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != "Samuel" || got.Email != "samuel@example.com" {
		t.Errorf("got = %+v", got)
	}

	// Taking another account's email is refused; keeping your own is fine.
	if _, err := us.UpdateProfile(context.Background(), got, "Samuel", "other@example.com"); !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
	if _, err := us.UpdateProfile(context.Background(), got, "Samuel", "samuel@example.com"); err != nil {
		t.Errorf("keeping own email err = %v", err)
	}
}

func TestListAndGetRequireAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	us := service.NewUserService(db, service.NewAuditService(db))

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	student := testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	if _, err := us.List(context.Background(), student); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("List err = %v, want ErrForbidden", err)
	}
	if _, err := us.Get(context.Background(), student, admin.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("Get err = %v, want ErrForbidden", err)
	}

	users, err := us.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}

func TestGetStats(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	audit := service.NewAuditService(db)
	us := service.NewUserService(db, audit)
	es := service.NewEventService(db, audit)

	admin := testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, true)
	teacher := testutil.CreateUser(t, db, "T", "t@example.com", model.RoleTeacher, true)
	testutil.CreateUser(t, db, "P", "p@example.com", model.RoleTeacher, false)
	testutil.CreateUser(t, db, "S", "s@example.com", model.RoleStudent, true)

	ev := testutil.CreateEvent(t, db, "One", teacher)
	testutil.CreateEvent(t, db, "Two", teacher)
	if _, err := es.Approve(context.Background(), admin, ev.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	stats, err := us.GetStats(context.Background(), admin)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := service.Stats{
		Students:        1,
		Teachers:        2,
		Admins:          1,
		PendingTeachers: 1,
		PendingEvents:   1,
		ApprovedEvents:  1,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestAuditTrailWritten(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	audit := service.NewAuditService(db)
	us := service.NewUserService(db, audit)

	registerUser(t, us, "Sam", "sam@example.com", "student")

	entries, total, err := audit.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total == 0 || len(entries) == 0 {
		t.Fatal("expected an audit entry for registration")
	}
	if entries[0].Category != service.AuditCategoryAuth {
		t.Errorf("category = %q, want auth", entries[0].Category)
	}
}
