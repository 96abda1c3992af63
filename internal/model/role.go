// Package model defines domain types used throughout the application:
// roles and their permission rules, users and events.
package model

import "strings"

// Role identifies what kind of account a user holds. It is a closed set;
// any value outside the three constants below is invalid and must never
// be persisted or trusted.
type Role string

// User roles.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Roles lists all valid roles.
var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// NormalizeRole lower-cases and trims a raw role value and matches it
// against the closed role set. The second return value is false for any
// value outside the set; callers must treat that as a validation failure,
// never fall back to a default role.
func NormalizeRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

// CanCreateEvents reports whether the role may create events.
// Teachers and admins only.
func (r Role) CanCreateEvents() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// CanApprove reports whether the role may approve or reject events.
// Admins only.
func (r Role) CanApprove() bool {
	return r == RoleAdmin
}

// CanEditOrDelete reports whether the acting user may edit or delete the
// given event. Admins always may; a teacher only for events they created
// themselves; students never.
func CanEditOrDelete(actingRole Role, actingID int64, ev Event) bool {
	if actingRole == RoleAdmin {
		return true
	}
	if actingRole == RoleTeacher && ev.CreatedByRole == RoleTeacher {
		return ev.CreatedByID == actingID
	}
	return false
}

// UserAction names an administrative action taken on a user account.
type UserAction string

// Administrative user actions.
const (
	UserActionDelete        UserAction = "delete"
	UserActionChangeRole    UserAction = "change_role"
	UserActionApprove       UserAction = "approve"
	UserActionResetPassword UserAction = "reset_password"
)

// CanAdministerUser reports whether an admin may perform the given action
// on the target account. Delete and role change are refused on the actor's
// own account; approval and password reset have no self-restriction.
func CanAdministerUser(actorID, targetID int64, action UserAction) bool {
	if actorID == targetID {
		return action != UserActionDelete && action != UserActionChangeRole
	}
	return true
}
