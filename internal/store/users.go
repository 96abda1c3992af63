package store

import (
	"context"
	"database/sql"
	"time"

	"campusevents/internal/model"
)

const userColumns = `id, name, email, password_hash, role, approved, email_verified,
	approved_by, approved_at, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.EmailVerified,
		&u.ApprovedBy, &u.ApprovedAt, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	return u, err
}

// CreateUserParams holds the fields for inserting a user.
type CreateUserParams struct {
	Name          string
	Email         string
	PasswordHash  string
	Role          model.Role
	Approved      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateUser inserts a user and returns the stored record.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, approved, email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.PasswordHash, arg.Role, arg.Approved, arg.EmailVerified,
		arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail fetches a user by email. Emails are unique across all roles.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// EmailInUse reports whether any account other than excludeID uses the email.
// Pass excludeID 0 to check all accounts.
func (q *Queries) EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`, email, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateUserProfileParams holds the fields for a profile update.
type UpdateUserProfileParams struct {
	Name      string
	Email     string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserProfile updates a user's name and email.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		arg.Name, arg.Email, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserPasswordParams holds the fields for a password update.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserRoleParams holds the fields for a role change. Approved must be
// set by the caller according to the target role's approval policy.
type UpdateUserRoleParams struct {
	Role      model.Role
	Approved  bool
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserRole changes a user's role in place.
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET role = ?, approved = ?, approved_by = NULL, approved_at = NULL, updated_at = ? WHERE id = ?`,
		arg.Role, arg.Approved, arg.UpdatedAt, arg.ID)
	return err
}

// ApproveUserParams holds the fields for a teacher approval.
type ApproveUserParams struct {
	ApprovedBy int64
	ApprovedAt time.Time
	ID         int64
}

// ApproveUser marks an account approved and stamps the approving admin.
func (q *Queries) ApproveUser(ctx context.Context, arg ApproveUserParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET approved = 1, approved_by = ?, approved_at = ?, updated_at = ? WHERE id = ?`,
		arg.ApprovedBy, arg.ApprovedAt, arg.ApprovedAt, arg.ID)
	return err
}

// UpdateUserLastLoginParams holds the fields for a last-login stamp.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the time of a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, arg.LastLoginAt, arg.ID)
	return err
}

// DeleteUser removes a user record.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ListUsers returns all users, newest first.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsersByRole returns the number of accounts holding the given role.
func (q *Queries) CountUsersByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	return n, err
}

// CountPendingTeachers returns the number of teacher accounts awaiting approval.
func (q *Queries) CountPendingTeachers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND approved = 0`, model.RoleTeacher).Scan(&n)
	return n, err
}
