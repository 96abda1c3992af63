// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the database-backed audit log.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"campusevents/internal/middleware"
	"campusevents/internal/store"
)

// AuditLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above a threshold level to the audit log.
type AuditLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewAuditLogHandler creates a handler that forwards WARN and above to the
// audit log, in addition to the wrapped handler's normal output.
func NewAuditLogHandler(inner slog.Handler, db *sql.DB) *AuditLogHandler {
	return &AuditLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *AuditLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *AuditLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeAuditEntry(ctx, r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *AuditLogHandler) WithGroup(name string) slog.Handler {
	return &AuditLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// writeAuditEntry persists a log record. The request path is read from the
// incoming context, then a background context is used for the insert so the
// entry survives request cancellation.
func (h *AuditLogHandler) writeAuditEntry(ctx context.Context, r slog.Record) {
	_ = h.queries.CreateAuditEntry(context.Background(), store.CreateAuditEntryParams{
		Level:       levelName(r.Level),
		Category:    extractCategory(r),
		Message:     r.Message,
		RequestPath: middleware.GetRequestPath(ctx),
		Metadata:    extractMetadata(r),
		CreatedAt:   r.Time,
	})
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	default:
		return "info"
	}
}

// extractCategory extracts a category attribute, inferring one from the
// message when absent.
func extractCategory(r slog.Record) string {
	var category string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})

	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "csrf") || strings.Contains(msg, "rate limit"):
		return "auth"
	case strings.Contains(msg, "event"):
		return "event"
	case strings.Contains(msg, "user") || strings.Contains(msg, "account"):
		return "user"
	default:
		return "system"
	}
}

// extractMetadata collects all log attributes into a JSON string.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
