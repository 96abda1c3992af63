// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"campusevents/internal/model"
	"campusevents/internal/service"
	"campusevents/internal/store"
)

// Scheduler runs the nightly audit log pruning job and a daily reminder
// about moderation queues that need admin attention.
type Scheduler struct {
	audit     *service.AuditService
	queries   *store.Queries
	cron      *cron.Cron
	logger    *slog.Logger
	retention time.Duration
}

// New creates a new scheduler instance.
func New(db *sql.DB, audit *service.AuditService, logger *slog.Logger, retention time.Duration) *Scheduler {
	return &Scheduler{
		audit:     audit,
		queries:   store.New(db),
		cron:      cron.New(),
		logger:    logger,
		retention: retention,
	}
}

// Start registers the jobs and begins the cron loop.
// Audit entries past the retention window are pruned nightly; pending
// approval queues are reported every morning.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.pruneAuditLog(); err != nil {
			s.logger.Error("failed to prune audit log", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 8 * * *", func() {
		if err := s.reportPendingQueues(); err != nil {
			s.logger.Error("failed to report pending queues", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneAuditLog removes audit entries older than the retention window.
func (s *Scheduler) pruneAuditLog() error {
	deleted, err := s.audit.PruneOlderThan(context.Background(), s.retention)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned audit log", "deleted", deleted, "retention", s.retention)
	}
	return nil
}

// reportPendingQueues logs how much moderation work is waiting.
func (s *Scheduler) reportPendingQueues() error {
	ctx := context.Background()

	teachers, err := s.queries.CountPendingTeachers(ctx)
	if err != nil {
		return err
	}
	events, err := s.queries.CountEventsByStatus(ctx, model.StatusPending)
	if err != nil {
		return err
	}

	if teachers > 0 || events > 0 {
		s.logger.Info("moderation queues waiting",
			"pending_teachers", teachers,
			"pending_events", events,
		)
	}
	return nil
}
