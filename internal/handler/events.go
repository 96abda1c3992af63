package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"campusevents/internal/middleware"
	"campusevents/internal/model"
	"campusevents/internal/service"
	"campusevents/internal/upload"
)

// EventHandler handles the event catalog and its moderation workflow.
type EventHandler struct {
	events  *service.EventService
	uploads *upload.Validator
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *service.EventService, uploads *upload.Validator) *EventHandler {
	return &EventHandler{events: events, uploads: uploads}
}

// eventPayload is the JSON body for create and update.
type eventPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// readEventInput extracts an EventInput from either a JSON body or a
// multipart form carrying an optional image.
func (h *EventHandler) readEventInput(w http.ResponseWriter, r *http.Request) (service.EventInput, bool) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(upload.MaxUploadSize + maxJSONBody); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid form data")
			return service.EventInput{}, false
		}

		in := service.EventInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Status:      r.FormValue("status"),
		}

		file, _, err := r.FormFile("image")
		if err == nil {
			defer func(f multipart.File) { _ = f.Close() }(file)
			res, err := h.uploads.ValidateAndStore(file)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return service.EventInput{}, false
			}
			in.Image = sql.NullString{String: res.Filename, Valid: true}
		}

		return in, true
	}

	var req eventPayload
	if !decodeJSON(w, r, &req) {
		return service.EventInput{}, false
	}
	return service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, true
}

// List returns the events visible to the caller.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	events, err := h.events.ListVisible(r.Context(), *user)
	if err != nil {
		writeServiceError(w, r, err, "failed to list events", "user_id", user.ID)
		return
	}
	writeJSONSuccess(w, map[string]any{"events": events})
}

// ListMine returns the caller's own events, whatever their status.
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	events, err := h.events.ListMine(r.Context(), *user)
	if err != nil {
		writeServiceError(w, r, err, "failed to list own events", "user_id", user.ID)
		return
	}
	writeJSONSuccess(w, map[string]any{"events": events})
}

// ListPending returns the admin moderation queue.
func (h *EventHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	events, err := h.events.ListByStatus(r.Context(), *user, model.StatusPending)
	if err != nil {
		writeServiceError(w, r, err, "failed to list pending events", "user_id", user.ID)
		return
	}
	writeJSONSuccess(w, map[string]any{"events": events})
}

// Get returns a single event.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	ev, err := h.events.Get(r.Context(), *user, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to get event", "event_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"event": ev})
}

// Create adds a new event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	in, ok := h.readEventInput(w, r)
	if !ok {
		return
	}

	ev, err := h.events.Create(r.Context(), *user, in)
	if err != nil {
		// The event was refused; its stored image would be orphaned.
		if in.Image.Valid {
			_ = h.uploads.Remove(in.Image.String)
		}
		writeServiceError(w, r, err, "failed to create event", "user_id", user.ID)
		return
	}

	writeJSONSuccessStatus(w, http.StatusCreated, map[string]any{"event": ev})
}

// Update edits an event's content.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	in, ok := h.readEventInput(w, r)
	if !ok {
		return
	}

	ev, replaced, err := h.events.Update(r.Context(), *user, id, in)
	if err != nil {
		if in.Image.Valid {
			_ = h.uploads.Remove(in.Image.String)
		}
		writeServiceError(w, r, err, "failed to update event", "event_id", id)
		return
	}

	if replaced != "" {
		if err := h.uploads.Remove(replaced); err != nil {
			slog.WarnContext(r.Context(), "failed to remove replaced event image", "event_id", ev.ID, "error", err)
		}
	}

	writeJSONSuccess(w, map[string]any{"event": ev})
}

// Approve marks an event approved.
func (h *EventHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.events.Approve)
}

// Reject marks an event rejected.
func (h *EventHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.events.Reject)
}

func (h *EventHandler) moderate(w http.ResponseWriter, r *http.Request, decide func(context.Context, model.User, int64) (model.Event, error)) {
	user := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	ev, err := decide(r.Context(), *user, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to moderate event", "event_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"event": ev})
}

// Delete removes an event and its stored image.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	ev, err := h.events.Delete(r.Context(), *user, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to delete event", "event_id", id)
		return
	}

	if ev.Image.Valid {
		if err := h.uploads.Remove(ev.Image.String); err != nil {
			slog.WarnContext(r.Context(), "failed to remove event image", "event_id", ev.ID, "error", err)
		}
	}

	writeJSONSuccess(w, nil)
}
