// Package store provides the durable record store: an ordered collection of
// job records persisted as one versioned document, plus an independently
// keyed attachment blob collection.
//
// Every record mutation is a snapshot read, compute, write back. Save is
// guarded by an optimistic version check; a concurrent writer causes
// ErrWriteConflict and the caller retries from a fresh read. Blob writes are
// not transactional with record writes — callers sequence the blob write
// before the record update that references it, so a crash leaves at worst an
// orphaned blob, never a dangling reference.
package store

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

var (
	// ErrWriteConflict is returned by Save when the persisted collection
	// changed since the snapshot was loaded.
	ErrWriteConflict = errors.New("store write conflict: snapshot is stale")

	// ErrBlobNotFound is returned by GetBlob for an unknown blob id.
	ErrBlobNotFound = errors.New("attachment blob not found")
)

// Snapshot is one consistent view of the record collection. Version is the
// persisted version counter at load time; Save succeeds only while it still
// matches.
type Snapshot struct {
	Version int64
	Records []domain.JobRecord
}

// FindByID returns a pointer into the snapshot's record slice, or nil.
func (s *Snapshot) FindByID(id string) *domain.JobRecord {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return &s.Records[i]
		}
	}
	return nil
}

// Store is the durable persistence surface for records and blobs.
type Store interface {
	// Load returns the current record collection and its version.
	Load(ctx context.Context) (Snapshot, error)

	// Save writes the collection back. It fails with ErrWriteConflict when
	// the persisted version no longer equals snap.Version. On success it
	// returns the new version.
	Save(ctx context.Context, snap Snapshot) (int64, error)

	// PutBlob stores an attachment payload and returns its generated id.
	PutBlob(ctx context.Context, filename string, data []byte) (string, error)

	// GetBlob returns the blob for id, or ErrBlobNotFound.
	GetBlob(ctx context.Context, id string) (domain.AttachmentBlob, error)

	// DeleteBlob removes a blob. Deleting an unknown id is not an error.
	DeleteBlob(ctx context.Context, id string) error

	// Restore destructively replaces the whole store content: the record
	// collection and every blob. Used by archive import only.
	Restore(ctx context.Context, records []domain.JobRecord, blobs []domain.AttachmentBlob) error

	Close() error
}

const maxUpdateRetries = 5

// Update runs the snapshot-read / compute / write-back loop for fn,
// retrying with exponential backoff when a concurrent writer wins the race.
// fn receives a fresh snapshot's records on every attempt and returns the
// records to persist, or keep=false to skip the write entirely.
func Update(ctx context.Context, s Store, fn func(records []domain.JobRecord) (out []domain.JobRecord, keep bool, err error)) (Snapshot, error) {
	var result Snapshot

	op := func() error {
		snap, err := s.Load(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		out, keep, err := fn(snap.Records)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !keep {
			result = snap
			return nil
		}

		snap.Records = out
		version, err := s.Save(ctx, snap)
		if err != nil {
			if errors.Is(err, ErrWriteConflict) {
				return err // retryable: reload and recompute
			}
			return backoff.Permanent(err)
		}

		snap.Version = version
		result = snap
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxUpdateRetries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return Snapshot{}, err
	}
	return result, nil
}
