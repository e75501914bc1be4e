package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_Allow(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(3 * time.Second)
	d.now = func() time.Time { return now }

	const url = "https://jobs.example.com/123"

	assert.True(t, d.Allow(url), "first observation passes")
	assert.False(t, d.Allow(url), "repeat inside the window is dropped")

	now = now.Add(2 * time.Second)
	assert.False(t, d.Allow(url), "still inside the window")

	now = now.Add(2 * time.Second)
	assert.True(t, d.Allow(url), "window elapsed")
}

func TestDebouncer_IndependentURLs(t *testing.T) {
	d := NewDebouncer(3 * time.Second)

	assert.True(t, d.Allow("https://jobs.example.com/1"))
	assert.True(t, d.Allow("https://jobs.example.com/2"))
	assert.False(t, d.Allow("https://jobs.example.com/1"))
}

func TestDebouncer_CleansStaleEntries(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(3 * time.Second)
	d.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		assert.True(t, d.Allow(string(rune('a'+i))))
		now = now.Add(4 * time.Second)
	}

	// Every earlier entry is past the window by now, so the map holds only
	// the latest URL.
	assert.Len(t, d.seen, 1)
}

func TestNewDebouncer_DefaultWindow(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, defaultDebounceWindow, d.window)
}
