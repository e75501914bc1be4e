// Package ingest turns one observed candidate posting into a store
// mutation: normalize, dedup against the current collection, merge into a
// matched record, opportunistically re-check its liveness, and persist.
package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrack/jobtrack-be/internal/dedup"
	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/liveness"
	"github.com/jobtrack/jobtrack-be/internal/merge"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// Outcome classifies what one ingestion did to the store.
type Outcome string

const (
	// Inserted means no duplicate existed and a new record was appended.
	Inserted Outcome = "inserted"
	// MergedNoChange means a duplicate existed and nothing new was learned.
	MergedNoChange Outcome = "merged_no_change"
	// MergedChanged means a duplicate existed and gained at least one field.
	MergedChanged Outcome = "merged_changed"
)

// Pipeline orchestrates matcher, merger, and liveness tracker around the
// store's optimistic write path.
type Pipeline struct {
	store   store.Store
	matcher *dedup.Matcher
	prober  liveness.Prober
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline wires the ingestion pipeline. now is replaceable for tests.
func NewPipeline(s store.Store, prober liveness.Prober, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:   s,
		matcher: dedup.NewMatcher(logger),
		prober:  prober,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the pipeline's time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Ingest processes one candidate. Ingesting the same candidate twice
// converges: the second pass matches the record the first one inserted and
// merges nothing.
//
// The whole decision runs inside the snapshot-read / write-back loop, so a
// concurrent writer only costs a retry against fresh data, never a lost
// update. The liveness probe for a matched, due record also runs inside
// that loop; probes are idempotent, so a retried attempt re-probing is
// harmless.
func (p *Pipeline) Ingest(ctx context.Context, cand domain.Candidate) (Outcome, domain.JobRecord, error) {
	now := p.now()
	incoming := p.normalize(cand, now)

	var (
		outcome Outcome
		result  domain.JobRecord
	)

	_, err := store.Update(ctx, p.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		idx, ok := p.matcher.Match(incoming, records)
		if !ok {
			outcome = Inserted
			result = incoming
			return append(records, incoming), true, nil
		}

		merged, changed := merge.Merge(records[idx], incoming)

		// Re-check liveness opportunistically, whether or not the merge
		// changed anything. Persist if either happened so a liveness update
		// is never silently dropped behind a no-op merge.
		livenessRan := false
		if liveness.IsDue(merged, now) {
			reachable := p.prober.Probe(ctx, merged.URL)
			merged = liveness.ApplyCheckResult(merged, reachable, p.now())
			livenessRan = true
		}

		if changed {
			outcome = MergedChanged
		} else {
			outcome = MergedNoChange
		}
		result = merged

		if !changed && !livenessRan {
			return records, false, nil
		}

		records[idx] = merged
		return records, true, nil
	})
	if err != nil {
		return "", domain.JobRecord{}, err
	}

	p.logger.Info("Candidate ingested",
		slog.String("outcome", string(outcome)),
		slog.String("record_id", result.ID),
		slog.String("company", result.Company),
		slog.String("title", result.Title),
	)

	return outcome, result, nil
}

// normalize builds a full record from the raw candidate: the legacy "N/A"
// sentinel and blank strings collapse into the single empty encoding, and
// lifecycle defaults are applied.
func (p *Pipeline) normalize(cand domain.Candidate, now time.Time) domain.JobRecord {
	return domain.JobRecord{
		ID:                uuid.New().String(),
		Title:             cleanField(cand.Title),
		Company:           cleanField(cand.Company),
		Location:          cleanField(cand.Location),
		RoleType:          cleanField(cand.RoleType),
		Salary:            cleanField(cand.Salary),
		DatePosted:        cleanField(cand.DatePosted),
		Duration:          cleanField(cand.Duration),
		WorkAuthorization: cleanField(cand.WorkAuthorization),
		JobDescription:    cleanField(cand.JobDescription),
		URL:               strings.TrimSpace(cand.URL),
		Website:           strings.TrimSpace(cand.Website),
		DateLogged:        now,
		Applied:           false,
		DateCompleted:     nil,
		Note:              "",
		Active:            true,
		LastChecked:       &now,
	}
}

// cleanField maps both "missing" encodings of scraped input to "".
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
