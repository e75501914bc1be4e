package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/notify"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := OpenBadger(t.TempDir(), slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_LoadEmpty(t *testing.T) {
	s := openTestBadger(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
	assert.Empty(t, snap.Records)
}

func TestBadgerStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	snap, err := s.Load(ctx)
	require.NoError(t, err)

	logged := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	snap.Records = []domain.JobRecord{
		{ID: "a", Title: "Engineer", Company: "Acme Corp", DateLogged: logged, Active: true},
	}

	version, err := s.Save(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Version)
	require.Len(t, reloaded.Records, 1)
	assert.Equal(t, snap.Records[0], reloaded.Records[0])
}

func TestBadgerStore_StaleSaveConflicts(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	stale, err := s.Load(ctx)
	require.NoError(t, err)

	fresh, err := s.Load(ctx)
	require.NoError(t, err)
	fresh.Records = []domain.JobRecord{{ID: "winner"}}
	_, err = s.Save(ctx, fresh)
	require.NoError(t, err)

	stale.Records = []domain.JobRecord{{ID: "loser"}}
	_, err = s.Save(ctx, stale)
	assert.ErrorIs(t, err, ErrWriteConflict)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "winner", snap.Records[0].ID)
}

func TestBadgerStore_BlobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	id, err := s.PutBlob(ctx, "cv.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	blob, err := s.GetBlob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, blob.ID)
	assert.Equal(t, "cv.pdf", blob.Filename)
	assert.Equal(t, []byte("pdf-bytes"), blob.Data)

	require.NoError(t, s.DeleteBlob(ctx, id))

	_, err = s.GetBlob(ctx, id)
	assert.ErrorIs(t, err, ErrBlobNotFound)

	// Deleting an unknown id is not an error.
	assert.NoError(t, s.DeleteBlob(ctx, "no-such-blob"))
}

func TestBadgerStore_Restore(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	// Pre-restore content that must disappear.
	snap, err := s.Load(ctx)
	require.NoError(t, err)
	snap.Records = []domain.JobRecord{{ID: "old"}}
	_, err = s.Save(ctx, snap)
	require.NoError(t, err)
	oldBlobID, err := s.PutBlob(ctx, "old.pdf", []byte("old"))
	require.NoError(t, err)

	records := []domain.JobRecord{{ID: "restored", Title: "Engineer"}}
	blobs := []domain.AttachmentBlob{{ID: "blob-1", Filename: "cv.pdf", Data: []byte("new")}}
	require.NoError(t, s.Restore(ctx, records, blobs))

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Records, 1)
	assert.Equal(t, "restored", reloaded.Records[0].ID)

	blob, err := s.GetBlob(ctx, "blob-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), blob.Data)

	_, err = s.GetBlob(ctx, oldBlobID)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestBadgerStore_RestoreKeepsVersionMonotonic(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	stale, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Restore(ctx, []domain.JobRecord{{ID: "restored"}}, nil))

	// A snapshot loaded before the restore must still fail its Save.
	stale.Records = append(stale.Records, domain.JobRecord{ID: "stale"})
	_, err = s.Save(ctx, stale)
	assert.ErrorIs(t, err, ErrWriteConflict)
}

func TestBadgerStore_NotifiesOnMutation(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	s, err := OpenBadger(t.TempDir(), slog.New(slog.DiscardHandler), hub)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	snap.Records = []domain.JobRecord{{ID: "a"}}
	_, err = s.Save(ctx, snap)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "records", ev.Kind)
		assert.Equal(t, int64(1), ev.Version)
	default:
		t.Fatal("expected a store-change event")
	}
}
