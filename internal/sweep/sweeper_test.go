package sweep

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// recordingProber answers per-URL results and remembers which URLs it saw.
type recordingProber struct {
	mu        sync.Mutex
	reachable map[string]bool
	probed    []string
}

func (p *recordingProber) Probe(ctx context.Context, url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, url)
	return p.reachable[url]
}

func (p *recordingProber) probedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.probed...)
}

func testSweeper(s store.Store, prober *recordingProber, now time.Time) *Sweeper {
	return NewSweeper(&Config{
		Logger:      slog.New(slog.DiscardHandler),
		Store:       s,
		Prober:      prober,
		Concurrency: 2,
	}).WithClock(func() time.Time { return now })
}

func seedRecords(t *testing.T, s store.Store, records ...domain.JobRecord) {
	t.Helper()
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	snap.Records = append(snap.Records, records...)
	_, err = s.Save(context.Background(), snap)
	require.NoError(t, err)
}

func TestSweeper_Run(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-1 * time.Hour)
	stale := now.Add(-25 * time.Hour)

	s := store.NewMemoryStore()
	seedRecords(t, s,
		domain.JobRecord{ID: "a", URL: "https://a.example.com", Active: true, LastChecked: &stale},
		domain.JobRecord{ID: "b", URL: "https://b.example.com", Active: true, LastChecked: &fresh},
		domain.JobRecord{ID: "c", URL: "https://c.example.com", Active: true},
	)

	prober := &recordingProber{reachable: map[string]bool{
		"https://a.example.com": false,
		"https://c.example.com": true,
	}}

	probed, err := testSweeper(s, prober, now).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, probed)
	assert.ElementsMatch(t, []string{"https://a.example.com", "https://c.example.com"}, prober.probedURLs())

	snap, err := s.Load(context.Background())
	require.NoError(t, err)

	a := snap.FindByID("a")
	require.NotNil(t, a)
	assert.False(t, a.Active, "unreachable record is deactivated")
	assert.Equal(t, now, *a.LastChecked)

	b := snap.FindByID("b")
	require.NotNil(t, b)
	assert.Equal(t, fresh, *b.LastChecked, "fresh record is untouched")

	c := snap.FindByID("c")
	require.NotNil(t, c)
	assert.True(t, c.Active)
	assert.Equal(t, now, *c.LastChecked)
}

func TestSweeper_Run_EmptyStore(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	prober := &recordingProber{reachable: map[string]bool{}}

	probed, err := testSweeper(store.NewMemoryStore(), prober, now).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, probed)
	assert.Empty(t, prober.probedURLs())
}

func TestSweeper_Run_SkipsRecheckedRecord(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-25 * time.Hour)

	s := store.NewMemoryStore()
	seedRecords(t, s,
		domain.JobRecord{ID: "a", URL: "https://a.example.com", Active: true, LastChecked: &stale},
	)

	// Someone else stamps the record between the sweep snapshot and the
	// write-back; the sweeper must not stamp a second check.
	checkedByOther := now.Add(-1 * time.Minute)
	prober := &checkAndMutateProber{
		store: s,
		stamp: checkedByOther,
	}

	sweeper := NewSweeper(&Config{
		Logger:      slog.New(slog.DiscardHandler),
		Store:       s,
		Prober:      prober,
		Concurrency: 1,
	}).WithClock(func() time.Time { return now })

	probed, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, probed)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	a := snap.FindByID("a")
	require.NotNil(t, a)
	assert.Equal(t, checkedByOther, *a.LastChecked, "concurrent check result must stand")
	assert.True(t, a.Active)
}

func TestSweeper_Run_CancelledCountMatchesProbes(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-25 * time.Hour)

	s := store.NewMemoryStore()
	var due []domain.JobRecord
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		checked := stale
		due = append(due, domain.JobRecord{
			ID: id, URL: "https://" + id + ".example.com",
			Active: true, LastChecked: &checked,
		})
	}
	seedRecords(t, s, due...)

	ctx, cancel := context.WithCancel(context.Background())
	prober := &cancellingProber{cancel: cancel}

	sweeper := NewSweeper(&Config{
		Logger:      slog.New(slog.DiscardHandler),
		Store:       s,
		Prober:      prober,
		Concurrency: 1,
	}).WithClock(func() time.Time { return now })

	probed, err := sweeper.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The dispatch channel is unbuffered, so a record only counts once a
	// worker has taken it, and every taken record reaches the prober. The
	// returned count must equal the probes actually issued regardless of
	// where the cancellation landed.
	assert.Equal(t, int(prober.calls.Load()), probed)
	assert.GreaterOrEqual(t, probed, 1)
}

// cancellingProber cancels the sweep on its first call and counts every call.
type cancellingProber struct {
	cancel context.CancelFunc
	calls  atomic.Int64
}

func (p *cancellingProber) Probe(ctx context.Context, url string) bool {
	if p.calls.Add(1) == 1 {
		p.cancel()
	}
	return true
}

// checkAndMutateProber simulates a foreground re-check racing the sweep: it
// stamps the record while the sweep probe is in flight.
type checkAndMutateProber struct {
	store store.Store
	stamp time.Time
}

func (p *checkAndMutateProber) Probe(ctx context.Context, url string) bool {
	_, err := store.Update(ctx, p.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			records[i].Active = true
			stamp := p.stamp
			records[i].LastChecked = &stamp
		}
		return records, true, nil
	})
	if err != nil {
		panic(err)
	}
	return false
}
