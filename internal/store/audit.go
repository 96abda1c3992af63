package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// AuditEntry is a persisted audit log record.
type AuditEntry struct {
	ID          int64         `json:"id"`
	Level       string        `json:"level"`
	Category    string        `json:"category"`
	Message     string        `json:"message"`
	UserID      sql.NullInt64 `json:"-"`
	IPAddress   string        `json:"ip_address"`
	RequestPath string        `json:"request_path"`
	Metadata    string        `json:"metadata"` // JSON string
	CreatedAt   time.Time     `json:"created_at"`
}

// MarshalJSON flattens the nullable user reference into a plain field,
// omitted for records not tied to an account.
func (e AuditEntry) MarshalJSON() ([]byte, error) {
	type alias AuditEntry
	out := struct {
		alias
		UserID *int64 `json:"user_id,omitempty"`
	}{alias: alias(e)}
	if e.UserID.Valid {
		out.UserID = &e.UserID.Int64
	}
	return json.Marshal(out)
}

// CreateAuditEntryParams holds the fields for inserting an audit record.
type CreateAuditEntryParams struct {
	Level       string
	Category    string
	Message     string
	UserID      sql.NullInt64
	IPAddress   string
	RequestPath string
	Metadata    string
	CreatedAt   time.Time
}

// CreateAuditEntry inserts an audit log record.
func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, category, message, user_id, ip_address, request_path, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress,
		arg.RequestPath, arg.Metadata, arg.CreatedAt)
	return err
}

// ListAuditEntriesParams holds pagination for the audit listing.
type ListAuditEntriesParams struct {
	Limit  int64
	Offset int64
}

// ListAuditEntries returns audit records, newest first.
func (q *Queries) ListAuditEntries(ctx context.Context, arg ListAuditEntriesParams) ([]AuditEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, ip_address, request_path, metadata, created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.IPAddress, &e.RequestPath, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountAuditEntries returns the total number of audit records.
func (q *Queries) CountAuditEntries(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n)
	return n, err
}

// DeleteAuditEntriesBefore removes audit records older than the cutoff and
// returns the number of rows deleted.
func (q *Queries) DeleteAuditEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
