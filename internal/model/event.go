package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// EventStatus is the moderation state of an event.
type EventStatus string

// Event moderation states. Every event starts StatusPending; admins move it
// to StatusApproved or StatusRejected and may re-decide at any time.
const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// NormalizeStatus matches a raw status value against the closed set.
func NormalizeStatus(raw string) (EventStatus, bool) {
	switch EventStatus(raw) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// Event field limits.
const (
	EventTitleMinLen       = 3
	EventTitleMaxLen       = 255
	EventDescriptionMaxLen = 5000
)

// Event is a catalog entry subject to admin moderation. CreatedByRole and
// CreatedByID form a weak reference to the author: the event keeps its
// original attribution even if the author is later deleted or changes role.
type Event struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Image         sql.NullString `json:"-"`
	Status        EventStatus    `json:"status"`
	CreatedByRole Role           `json:"created_by_role"`
	CreatedByID   int64          `json:"created_by_id"`
	CreatedAt     time.Time      `json:"created_at"`
	ApprovedBy    sql.NullInt64  `json:"-"`
	ApprovedAt    sql.NullTime   `json:"-"`
}

// MarshalJSON flattens the nullable image column into a plain string field,
// omitted when no image is attached.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(struct {
		alias
		Image string `json:"image,omitempty"`
	}{alias(e), e.Image.String})
}

// VisibleTo reports whether a user with the given role may see the event.
// Students only see approved events; teachers and admins see everything.
func (e *Event) VisibleTo(role Role) bool {
	if role == RoleStudent {
		return e.Status == StatusApproved
	}
	return true
}
