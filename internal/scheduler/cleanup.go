package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/repository"
)

// CleanupScheduler prunes audit log entries older than the retention window.
// Attribution rows and payouts are never pruned; they are the billing record.
type CleanupScheduler struct {
	audits        repository.AuditStore
	retentionDays int
	logger        *logrus.Logger
	cron          *cron.Cron
	mu            sync.Mutex
	running       bool
}

// NewCleanupScheduler creates a new cleanup scheduler
func NewCleanupScheduler(audits repository.AuditStore, retentionDays int, logger *logrus.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		audits:        audits,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start starts the cleanup scheduler
func (s *CleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.retentionDays <= 0 {
		s.logger.Info("Audit log cleanup is disabled")
		return nil
	}

	s.cron = cron.New()

	// 2 AM daily
	if _, err := s.cron.AddFunc("0 2 * * *", s.runCleanup); err != nil {
		s.logger.WithError(err).Error("Failed to schedule cleanup job")
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.WithField("retention_days", s.retentionDays).Info("Audit log cleanup scheduler started")
	return nil
}

// Stop stops the cleanup scheduler
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Audit log cleanup scheduler stopped")
}

// RunNow triggers an immediate cleanup (for manual trigger)
func (s *CleanupScheduler) RunNow() {
	go s.runCleanup()
}

// IsRunning returns whether the scheduler is running
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *CleanupScheduler) runCleanup() {
	ctx := context.Background()
	startTime := time.Now()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.audits.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup audit logs")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"retention_days": s.retentionDays,
		"logs_deleted":   deleted,
		"duration":       time.Since(startTime).String(),
	}).Info("Completed scheduled audit log cleanup")
}
