package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

func TestMemoryStore_SaveConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap, err := s.Load(ctx)
	require.NoError(t, err)

	// A second writer lands first.
	other, err := s.Load(ctx)
	require.NoError(t, err)
	other.Records = append(other.Records, domain.JobRecord{ID: "other"})
	_, err = s.Save(ctx, other)
	require.NoError(t, err)

	// The stale snapshot must be rejected.
	snap.Records = append(snap.Records, domain.JobRecord{ID: "stale"})
	_, err = s.Save(ctx, snap)
	assert.ErrorIs(t, err, ErrWriteConflict)
}

func TestUpdate_RetryPreservesBothWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	interfered := false
	_, err := Update(ctx, s, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		// A concurrent writer sneaks in before our first Save attempt; the
		// retry reloads and must see its record.
		if !interfered {
			interfered = true
			other, err := s.Load(ctx)
			require.NoError(t, err)
			other.Records = append(other.Records, domain.JobRecord{ID: "concurrent"})
			_, err = s.Save(ctx, other)
			require.NoError(t, err)
		}
		return append(records, domain.JobRecord{ID: "mine"}), true, nil
	})
	require.NoError(t, err)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.NotNil(t, snap.FindByID("concurrent"))
	assert.NotNil(t, snap.FindByID("mine"))
}

func TestUpdate_KeepFalseSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	before, err := s.Load(ctx)
	require.NoError(t, err)

	snap, err := Update(ctx, s, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		return records, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, before.Version, snap.Version)

	after, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version, "version must not advance on a skipped write")
}

func TestUpdate_FnErrorIsPermanent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	wantErr := errors.New("record not found")
	calls := 0
	_, err := Update(ctx, s, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		calls++
		return nil, false, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls, "a domain error must not be retried")
}

func TestSnapshot_FindByID(t *testing.T) {
	snap := Snapshot{Records: []domain.JobRecord{
		{ID: "a", Title: "First"},
		{ID: "b", Title: "Second"},
	}}

	require.NotNil(t, snap.FindByID("b"))
	assert.Equal(t, "Second", snap.FindByID("b").Title)
	assert.Nil(t, snap.FindByID("missing"))

	// The pointer aliases the slice, so callers can mutate in place.
	snap.FindByID("a").Title = "Renamed"
	assert.Equal(t, "Renamed", snap.Records[0].Title)
}
