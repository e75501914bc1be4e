package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and fires a full sweep on a fixed cadence
// (reference cadence: once per 1440 minutes).
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	logger  *slog.Logger
	spec    string
}

// NewScheduler creates a scheduler firing every intervalMinutes minutes.
func NewScheduler(sweeper *Sweeper, intervalMinutes int, logger *slog.Logger) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 1440
	}
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
		spec:    fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the sweep job and starts the cron loop. One sweep runs
// immediately so a restarted service does not wait a full interval; the
// per-record due check keeps that from double-probing anything.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Sweep scheduler started",
		slog.String("spec", s.spec),
	)

	go s.runSweep(ctx)

	return nil
}

// Stop shuts down the cron loop; a sweep already in flight is abandoned to
// the next cadence, which is safe because probes are idempotent.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Sweep scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if _, err := s.sweeper.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Sweep failed",
			slog.Any("error", err),
		)
	}
}
