package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, startTime: time.Now()}
}

// Health answers the liveness probe. Degrades to 503 when the database
// does not respond.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSONSuccess(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
