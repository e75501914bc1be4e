// Package sweep runs the periodic liveness pass: every record that is due
// gets probed and its active/lastChecked state written back.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/liveness"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// Config holds sweeper configuration
type Config struct {
	Logger      *slog.Logger
	Store       store.Store
	Prober      liveness.Prober
	Concurrency int
}

// Sweeper probes due records with a bounded worker pool. Probes run with no
// lock held; each record's write-back goes through the optimistic-retry
// path so a concurrent foreground edit is never lost. A sweep killed
// mid-flight is safe to abandon: completed per-record writes stand and the
// rest are picked up by the next cadence.
type Sweeper struct {
	logger      *slog.Logger
	store       store.Store
	prober      liveness.Prober
	concurrency int
	now         func() time.Time
}

// NewSweeper creates a sweeper instance
func NewSweeper(cfg *Config) *Sweeper {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Sweeper{
		logger:      cfg.Logger,
		store:       cfg.Store,
		prober:      cfg.Prober,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// WithClock overrides the sweeper's time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run executes one full sweep and returns the number of records probed.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	due := make([]domain.JobRecord, 0, len(snap.Records))
	for _, rec := range snap.Records {
		if liveness.IsDue(rec, now) {
			due = append(due, rec)
		}
	}

	s.logger.Info("Liveness sweep started",
		slog.Int("records", len(snap.Records)),
		slog.Int("due", len(due)),
		slog.Int("concurrency", s.concurrency),
	)

	if len(due) == 0 {
		return 0, nil
	}

	jobs := make(chan domain.JobRecord)
	var wg sync.WaitGroup

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case rec, ok := <-jobs:
					if !ok {
						return
					}
					s.checkRecord(ctx, rec)
				}
			}
		}(i)
	}

	probed := 0
dispatch:
	for _, rec := range due {
		select {
		case jobs <- rec:
			probed++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("Liveness sweep complete",
		slog.Int("probed", probed),
	)

	return probed, ctx.Err()
}

// checkRecord probes one record and writes the result back. The due check
// is repeated against the fresh snapshot: if the foreground context probed
// this record after our sweep snapshot was taken, the write is skipped
// instead of stamping a second check inside the window.
func (s *Sweeper) checkRecord(ctx context.Context, rec domain.JobRecord) {
	reachable := s.prober.Probe(ctx, rec.URL)
	checkedAt := s.now()

	_, err := store.Update(ctx, s.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			if records[i].ID != rec.ID {
				continue
			}
			if !liveness.IsDue(records[i], checkedAt) {
				return records, false, nil
			}
			records[i] = liveness.ApplyCheckResult(records[i], reachable, checkedAt)
			return records, true, nil
		}
		// Record deleted while the probe was in flight; nothing to write.
		return records, false, nil
	})
	if err != nil {
		s.logger.Error("Failed to persist liveness result",
			slog.String("record_id", rec.ID),
			slog.String("url", rec.URL),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Debug("Record probed",
		slog.String("record_id", rec.ID),
		slog.Bool("reachable", reachable),
	)
}
