package service_test

import (
	"context"
	"testing"

	"campusevents/internal/middleware"
	"campusevents/internal/service"
	"campusevents/internal/store"
	"campusevents/internal/testutil"
)

func TestAuditLogRecordsRequestPath(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	audit := service.NewAuditService(db)

	userID := int64(3)
	ctx := context.WithValue(context.Background(), middleware.ContextKeyRequestPath, "/admin/users/3")
	audit.LogUser(ctx, service.AuditLevelInfo, "user deleted", &userID, nil)

	entries, _, err := audit.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].RequestPath != "/admin/users/3" {
		t.Errorf("request path = %q, want /admin/users/3", entries[0].RequestPath)
	}
}

func TestAuditLogWithoutRequestContext(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	audit := service.NewAuditService(db)

	// Scheduler jobs log without a request; the path simply stays empty.
	audit.Log(context.Background(), service.AuditLevelWarning, service.AuditCategorySystem,
		"audit log pruned", nil, "", map[string]any{"deleted": 12})

	entries, err := store.New(db).ListAuditEntries(context.Background(), store.ListAuditEntriesParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].RequestPath != "" {
		t.Errorf("request path = %q, want empty", entries[0].RequestPath)
	}
}
