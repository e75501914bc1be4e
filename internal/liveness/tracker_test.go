package liveness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastChecked *time.Time
		want        bool
	}{
		{
			name:        "never checked is due",
			lastChecked: nil,
			want:        true,
		},
		{
			name:        "checked 23h ago is not due",
			lastChecked: timePtr(now.Add(-23 * time.Hour)),
			want:        false,
		},
		{
			name:        "checked exactly 24h ago is due",
			lastChecked: timePtr(now.Add(-24 * time.Hour)),
			want:        true,
		},
		{
			name:        "checked 25h ago is due",
			lastChecked: timePtr(now.Add(-25 * time.Hour)),
			want:        true,
		},
		{
			name:        "checked just now is not due",
			lastChecked: timePtr(now),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.JobRecord{LastChecked: tt.lastChecked}
			assert.Equal(t, tt.want, IsDue(rec, now))
		})
	}
}

func TestApplyCheckResult(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	t.Run("reachable keeps record active", func(t *testing.T) {
		rec := domain.JobRecord{Active: false}

		got := ApplyCheckResult(rec, true, now)

		assert.True(t, got.Active)
		require.NotNil(t, got.LastChecked)
		assert.Equal(t, now, *got.LastChecked)
	})

	t.Run("unreachable deactivates record", func(t *testing.T) {
		rec := domain.JobRecord{Active: true}

		got := ApplyCheckResult(rec, false, now)

		assert.False(t, got.Active)
		require.NotNil(t, got.LastChecked)
		assert.Equal(t, now, *got.LastChecked)
	})

	t.Run("lastChecked is stamped even when active is unchanged", func(t *testing.T) {
		old := now.Add(-48 * time.Hour)
		rec := domain.JobRecord{Active: true, LastChecked: &old}

		got := ApplyCheckResult(rec, true, now)

		require.NotNil(t, got.LastChecked)
		assert.Equal(t, now, *got.LastChecked)
		assert.False(t, IsDue(got, now))
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
