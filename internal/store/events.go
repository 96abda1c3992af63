package store

import (
	"context"
	"database/sql"
	"time"

	"campusevents/internal/model"
)

const eventColumns = `id, title, description, image, status,
	created_by_role, created_by_id, created_at, approved_by, approved_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Image, &e.Status,
		&e.CreatedByRole, &e.CreatedByID, &e.CreatedAt, &e.ApprovedBy, &e.ApprovedAt,
	)
	return e, err
}

func (q *Queries) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateEventParams holds the fields for inserting an event.
// Status is not a parameter: every new event starts pending.
type CreateEventParams struct {
	Title         string
	Description   string
	Image         sql.NullString
	CreatedByRole model.Role
	CreatedByID   int64
	CreatedAt     time.Time
}

// CreateEvent inserts an event in pending status and returns the stored record.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (title, description, image, status, created_by_role, created_by_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Description, arg.Image, model.StatusPending,
		arg.CreatedByRole, arg.CreatedByID, arg.CreatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return q.GetEventByID(ctx, id)
}

// GetEventByID fetches an event by primary key.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (model.Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// UpdateEventParams holds the editable fields of an event.
type UpdateEventParams struct {
	Title       string
	Description string
	Image       sql.NullString
	ID          int64
}

// UpdateEvent updates an event's content fields, leaving status untouched.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, image = ? WHERE id = ?`,
		arg.Title, arg.Description, arg.Image, arg.ID)
	return err
}

// SetEventStatusParams holds the fields for a moderation decision.
type SetEventStatusParams struct {
	Status     model.EventStatus
	ApprovedBy int64
	ApprovedAt time.Time
	ID         int64
}

// SetEventStatus applies a moderation decision in a single atomic update so
// concurrent decisions serialize to last-write-wins.
func (q *Queries) SetEventStatus(ctx context.Context, arg SetEventStatusParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET status = ?, approved_by = ?, approved_at = ? WHERE id = ?`,
		arg.Status, arg.ApprovedBy, arg.ApprovedAt, arg.ID)
	return err
}

// DeleteEvent removes an event record.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}

// ListEvents returns all events, newest first.
func (q *Queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	return q.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id DESC`)
}

// ListEventsByStatus returns events in the given status, newest first.
func (q *Queries) ListEventsByStatus(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	return q.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE status = ? ORDER BY created_at DESC, id DESC`, status)
}

// ListEventsByCreatorParams identifies an event author.
type ListEventsByCreatorParams struct {
	CreatedByRole model.Role
	CreatedByID   int64
}

// ListEventsByCreator returns events authored by the given user, newest first.
func (q *Queries) ListEventsByCreator(ctx context.Context, arg ListEventsByCreatorParams) ([]model.Event, error) {
	return q.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE created_by_role = ? AND created_by_id = ?
		 ORDER BY created_at DESC, id DESC`,
		arg.CreatedByRole, arg.CreatedByID)
}

// CountEventsByStatus returns the number of events in the given status.
func (q *Queries) CountEventsByStatus(ctx context.Context, status model.EventStatus) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE status = ?`, status).Scan(&n)
	return n, err
}
