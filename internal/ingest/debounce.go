package ingest

import (
	"sync"
	"time"
)

const defaultDebounceWindow = 3 * time.Second

// Debouncer suppresses rapid repeated observations of the same source URL.
// It belongs to the pipeline's caller (the HTTP surface), not to the
// pipeline itself: ingestion stays idempotent either way, the debounce just
// saves pointless work when a page re-fires its mutation observers.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

// NewDebouncer creates a debouncer. A non-positive window falls back to the
// default 3 seconds.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether an observation of url should be processed, and
// records it. A second observation inside the window is rejected.
func (d *Debouncer) Allow(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[url]; ok && now.Sub(last) < d.window {
		return false
	}

	// Opportunistic cleanup keeps the map from growing with dead URLs.
	for u, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, u)
		}
	}

	d.seen[url] = now
	return true
}
