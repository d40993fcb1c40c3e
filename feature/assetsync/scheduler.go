package assetsync

import (
	"context"
	"errors"
	"time"

	"asset-pipeline/core/reconcile"

	"go.uber.org/zap"
)

// Refresher is the work a Scheduler repeats.
type Refresher interface {
	Refresh(ctx context.Context) (reconcile.Report, error)
}

// Scheduler refreshes the listing on a fixed interval.
type Scheduler struct {
	target   Refresher
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a scheduler for target.
func NewScheduler(target Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{target: target, interval: interval, logger: logger}
}

// Run refreshes once immediately and then every interval until ctx ends.
// A non-positive interval returns at once.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Reconciliation scheduler disabled")
		return
	}
	s.logger.Info("Reconciliation scheduler started", zap.Duration("interval", s.interval))

	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reconciliation scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.target.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Scheduled reconciliation failed", zap.Error(err))
	}
}
