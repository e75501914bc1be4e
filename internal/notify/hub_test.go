package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FanOut(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	hub.Notify(Event{Kind: "records", Version: 7})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, "records", ev.Kind)
			assert.Equal(t, int64(7), ev.Version)
		default:
			t.Fatal("expected event on every subscriber")
		}
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	cancel()

	_, ok := <-events
	assert.False(t, ok, "channel must be closed after cancel")

	// Cancel is idempotent and a notify after cancel must not panic.
	cancel()
	hub.Notify(Event{Kind: "records", Version: 1})
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer; Notify must never block.
	for i := 0; i < 100; i++ {
		hub.Notify(Event{Kind: "records", Version: int64(i)})
	}

	received := 0
	for {
		select {
		case <-events:
			received++
			continue
		default:
		}
		break
	}

	require.Greater(t, received, 0)
	assert.Less(t, received, 100, "excess events are dropped, not queued unbounded")
}

func TestMulti_ForwardsAndSkipsNil(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	m := Multi{nil, hub}
	m.Notify(Event{Kind: "blobs"})

	select {
	case ev := <-events:
		assert.Equal(t, "blobs", ev.Kind)
	default:
		t.Fatal("expected event forwarded through Multi")
	}
}
