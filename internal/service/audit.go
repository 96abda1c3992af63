package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"campusevents/internal/middleware"
	"campusevents/internal/store"
)

// Audit levels and categories.
const (
	AuditLevelInfo    = "info"
	AuditLevelWarning = "warning"
	AuditLevelError   = "error"

	AuditCategoryAuth   = "auth"
	AuditCategoryEvent  = "event"
	AuditCategoryUser   = "user"
	AuditCategorySystem = "system"
)

// AuditService records security-relevant actions in the audit log.
type AuditService struct {
	queries *store.Queries
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{queries: store.New(db)}
}

// Log creates an audit log entry. The request path is taken from the
// context when the call originates from an HTTP request. Failures are logged
// but never propagate; an audit write must not fail the action it describes.
func (s *AuditService) Log(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.queries.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
		Level:       level,
		Category:    category,
		Message:     message,
		UserID:      nullUserID,
		IPAddress:   ipAddress,
		RequestPath: middleware.GetRequestPath(ctx),
		Metadata:    metadataJSON,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to write audit entry", "error", err, "message", message)
	}
}

// LogAuth records an authentication-related action.
func (s *AuditService) LogAuth(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) {
	s.Log(ctx, level, AuditCategoryAuth, message, userID, ipAddress, metadata)
}

// LogEvent records an event-workflow action.
func (s *AuditService) LogEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) {
	s.Log(ctx, level, AuditCategoryEvent, message, userID, "", metadata)
}

// LogUser records a user-administration action.
func (s *AuditService) LogUser(ctx context.Context, level, message string, userID *int64, metadata map[string]any) {
	s.Log(ctx, level, AuditCategoryUser, message, userID, "", metadata)
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit, offset int64) ([]store.AuditEntry, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.queries.ListAuditEntries(ctx, store.ListAuditEntriesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountAuditEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// PruneOlderThan removes audit entries past the retention window.
func (s *AuditService) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.queries.DeleteAuditEntriesBefore(ctx, cutoff)
}
