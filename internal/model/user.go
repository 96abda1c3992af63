package model

import (
	"database/sql"
	"time"
)

// User represents a registered account. All roles share one table; Role is
// the discriminant. Approved is always true for students and admins and
// starts false for teachers until an admin approves the account.
type User struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"-"` // Never expose in JSON
	Role          Role          `json:"role"`
	Approved      bool          `json:"approved"`
	EmailVerified bool          `json:"email_verified"`
	ApprovedBy    sql.NullInt64 `json:"-"`
	ApprovedAt    sql.NullTime  `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	LastLoginAt   sql.NullTime  `json:"-"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PendingApproval reports whether the account exists but may not log in yet.
// Only teacher accounts can be in this state.
func (u *User) PendingApproval() bool {
	return u.Role == RoleTeacher && !u.Approved
}
