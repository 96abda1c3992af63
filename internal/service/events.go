package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"campusevents/internal/model"
	"campusevents/internal/store"
)

// EventInput carries the user-supplied fields for creating or editing an event.
type EventInput struct {
	Title       string
	Description string
	Image       sql.NullString
	// Status is honored only for admins; for everyone else it is
	// silently ignored rather than rejected.
	Status string
}

// EventService implements the moderation workflow around events.
type EventService struct {
	queries   *store.Queries
	audit     *AuditService
	sanitizer *bluemonday.Policy
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, audit *AuditService) *EventService {
	return &EventService{
		queries:   store.New(db),
		audit:     audit,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// validate checks the input fields and returns the cleaned title/description.
func (s *EventService) validate(in EventInput) (string, string, error) {
	fields := make(map[string]string)

	title := strings.TrimSpace(in.Title)
	if len(title) < model.EventTitleMinLen {
		fields["title"] = "must be at least 3 characters"
	} else if len(title) > model.EventTitleMaxLen {
		fields["title"] = "must be at most 255 characters"
	}

	description := s.sanitizer.Sanitize(strings.TrimSpace(in.Description))
	if len(description) > model.EventDescriptionMaxLen {
		fields["description"] = "must be at most 5000 characters"
	}

	if err := newValidationError(fields); err != nil {
		return "", "", err
	}
	return title, description, nil
}

// Create adds a new event. It always enters the workflow as pending unless
// the actor is an admin who supplied an explicit decision.
func (s *EventService) Create(ctx context.Context, actor model.User, in EventInput) (model.Event, error) {
	if !actor.Role.CanCreateEvents() {
		return model.Event{}, ErrForbidden
	}
	if actor.PendingApproval() {
		return model.Event{}, ErrPendingApproval
	}

	title, description, err := s.validate(in)
	if err != nil {
		return model.Event{}, err
	}

	ev, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Title:         title,
		Description:   description,
		Image:         in.Image,
		CreatedByRole: actor.Role,
		CreatedByID:   actor.ID,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return model.Event{}, err
	}

	if actor.IsAdmin() && in.Status != "" {
		if status, ok := model.NormalizeStatus(in.Status); ok && status != model.StatusPending {
			if err := s.decide(ctx, actor, &ev, status); err != nil {
				return model.Event{}, err
			}
			if ev, err = s.queries.GetEventByID(ctx, ev.ID); err != nil {
				return model.Event{}, err
			}
		}
	}

	s.audit.LogEvent(ctx, AuditLevelInfo, "event created", &actor.ID, map[string]any{
		"event_id": ev.ID,
		"title":    ev.Title,
	})

	return ev, nil
}

// Get returns an event if the actor is allowed to see it. An existing event
// hidden from the actor reads as forbidden; only a missing id reads as not
// found.
func (s *EventService) Get(ctx context.Context, actor model.User, id int64) (model.Event, error) {
	ev, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}

	if !ev.VisibleTo(actor.Role) {
		return model.Event{}, ErrForbidden
	}
	return ev, nil
}

// ListVisible returns the events the actor may see, newest first.
func (s *EventService) ListVisible(ctx context.Context, actor model.User) ([]model.Event, error) {
	if actor.Role == model.RoleStudent {
		return s.queries.ListEventsByStatus(ctx, model.StatusApproved)
	}
	return s.queries.ListEvents(ctx)
}

// ListByStatus returns events in one workflow state. Admin only; this is
// the moderation queue.
func (s *EventService) ListByStatus(ctx context.Context, actor model.User, status model.EventStatus) ([]model.Event, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.queries.ListEventsByStatus(ctx, status)
}

// ListMine returns events created by the actor.
func (s *EventService) ListMine(ctx context.Context, actor model.User) ([]model.Event, error) {
	return s.queries.ListEventsByCreator(ctx, store.ListEventsByCreatorParams{
		CreatedByRole: actor.Role,
		CreatedByID:   actor.ID,
	})
}

// Update edits an event's content. Owners and admins only. A moderation
// decision supplied by an admin is applied after the content update. The
// second return value is the previously stored image filename when a new
// upload replaced it, so the caller can remove the orphaned file.
func (s *EventService) Update(ctx context.Context, actor model.User, id int64, in EventInput) (model.Event, string, error) {
	ev, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, "", ErrNotFound
		}
		return model.Event{}, "", err
	}

	if !model.CanEditOrDelete(actor.Role, actor.ID, ev) {
		return model.Event{}, "", ErrForbidden
	}

	title, description, err := s.validate(in)
	if err != nil {
		return model.Event{}, "", err
	}

	image := ev.Image
	var replaced string
	if in.Image.Valid {
		if ev.Image.Valid && ev.Image.String != in.Image.String {
			replaced = ev.Image.String
		}
		image = in.Image
	}

	if err := s.queries.UpdateEvent(ctx, store.UpdateEventParams{
		Title:       title,
		Description: description,
		Image:       image,
		ID:          ev.ID,
	}); err != nil {
		return model.Event{}, "", err
	}

	if actor.IsAdmin() && in.Status != "" {
		if status, ok := model.NormalizeStatus(in.Status); ok {
			if err := s.decide(ctx, actor, &ev, status); err != nil {
				return model.Event{}, "", err
			}
		}
	}

	s.audit.LogEvent(ctx, AuditLevelInfo, "event updated", &actor.ID, map[string]any{
		"event_id": ev.ID,
	})

	updated, err := s.queries.GetEventByID(ctx, id)
	return updated, replaced, err
}

// Approve marks an event approved. Admin only. Deciding an already-decided
// event is allowed and simply re-stamps the decision.
func (s *EventService) Approve(ctx context.Context, actor model.User, id int64) (model.Event, error) {
	return s.moderate(ctx, actor, id, model.StatusApproved)
}

// Reject marks an event rejected. Admin only.
func (s *EventService) Reject(ctx context.Context, actor model.User, id int64) (model.Event, error) {
	return s.moderate(ctx, actor, id, model.StatusRejected)
}

func (s *EventService) moderate(ctx context.Context, actor model.User, id int64, status model.EventStatus) (model.Event, error) {
	if !actor.Role.CanApprove() {
		return model.Event{}, ErrForbidden
	}

	ev, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}

	if err := s.decide(ctx, actor, &ev, status); err != nil {
		return model.Event{}, err
	}

	s.audit.LogEvent(ctx, AuditLevelInfo, "event "+string(status), &actor.ID, map[string]any{
		"event_id": ev.ID,
	})

	return s.queries.GetEventByID(ctx, id)
}

// decide applies a moderation decision. The status, decider and timestamp
// change in one statement, so concurrent decisions cannot interleave; the
// last write wins wholesale.
func (s *EventService) decide(ctx context.Context, actor model.User, ev *model.Event, status model.EventStatus) error {
	return s.queries.SetEventStatus(ctx, store.SetEventStatusParams{
		Status:     status,
		ApprovedBy: actor.ID,
		ApprovedAt: time.Now(),
		ID:         ev.ID,
	})
}

// Delete removes an event. Owners and admins only. The removed event is
// returned so the caller can clean up its stored image.
func (s *EventService) Delete(ctx context.Context, actor model.User, id int64) (model.Event, error) {
	ev, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}

	if !model.CanEditOrDelete(actor.Role, actor.ID, ev) {
		return model.Event{}, ErrForbidden
	}

	if err := s.queries.DeleteEvent(ctx, ev.ID); err != nil {
		return model.Event{}, err
	}

	s.audit.LogEvent(ctx, AuditLevelInfo, "event deleted", &actor.ID, map[string]any{
		"event_id": ev.ID,
		"title":    ev.Title,
	})

	return ev, nil
}

// CountByStatus returns how many events sit in the given workflow state.
func (s *EventService) CountByStatus(ctx context.Context, status model.EventStatus) (int64, error) {
	return s.queries.CountEventsByStatus(ctx, status)
}
