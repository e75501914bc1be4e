package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/notify"
)

const (
	recordsKey = "records"
	versionKey = "records_version"
	blobPrefix = "blob:"
)

// BadgerStore is the default embedded backend. The record collection lives
// as one JSON document under a fixed key next to its version counter; blobs
// live under blob:<uuid> keys.
type BadgerStore struct {
	db       *badger.DB
	logger   *slog.Logger
	notifier notify.Notifier
}

// OpenBadger opens (or creates) the store at path.
func OpenBadger(path string, logger *slog.Logger, notifier notify.Notifier) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Info("Badger store opened",
		slog.String("path", path),
	)

	return &BadgerStore{db: db, logger: logger, notifier: notifier}, nil
}

// Load returns the current record collection and its version.
func (b *BadgerStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	err := b.db.View(func(txn *badger.Txn) error {
		version, err := readVersion(txn)
		if err != nil {
			return err
		}
		snap.Version = version

		item, err := txn.Get([]byte(recordsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			snap.Records = []domain.JobRecord{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap.Records)
		})
	})
	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Save writes the collection back under the optimistic version check.
func (b *BadgerStore) Save(ctx context.Context, snap Snapshot) (int64, error) {
	data, err := json.Marshal(snap.Records)
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}

	newVersion := snap.Version + 1

	err = b.db.Update(func(txn *badger.Txn) error {
		current, err := readVersion(txn)
		if err != nil {
			return err
		}
		if current != snap.Version {
			return ErrWriteConflict
		}

		if err := txn.Set([]byte(recordsKey), data); err != nil {
			return fmt.Errorf("failed to write records: %w", err)
		}
		return txn.Set([]byte(versionKey), encodeVersion(newVersion))
	})
	if errors.Is(err, badger.ErrConflict) {
		// Badger's own SSI conflict detection fired before our check did.
		err = ErrWriteConflict
	}
	if err != nil {
		return 0, err
	}

	b.notify(notify.Event{Kind: "records", Version: newVersion})
	return newVersion, nil
}

// PutBlob stores an attachment payload under a generated id.
func (b *BadgerStore) PutBlob(ctx context.Context, filename string, data []byte) (string, error) {
	id := uuid.New().String()

	blob := domain.AttachmentBlob{ID: id, Filename: filename, Data: data}
	encoded, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("failed to encode blob: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(blobPrefix+id), encoded)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	b.notify(notify.Event{Kind: "blobs"})
	return id, nil
}

// GetBlob returns the blob for id, or ErrBlobNotFound.
func (b *BadgerStore) GetBlob(ctx context.Context, id string) (domain.AttachmentBlob, error) {
	var blob domain.AttachmentBlob

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBlobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read blob: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &blob)
		})
	})
	if err != nil {
		return domain.AttachmentBlob{}, err
	}

	return blob, nil
}

// DeleteBlob removes a blob. Unknown ids are ignored.
func (b *BadgerStore) DeleteBlob(ctx context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(blobPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	b.notify(notify.Event{Kind: "blobs"})
	return nil
}

// Restore destructively replaces records and blobs. The version counter
// keeps increasing across a restore so that snapshots loaded before it
// still fail their Save.
func (b *BadgerStore) Restore(ctx context.Context, records []domain.JobRecord, blobs []domain.AttachmentBlob) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	var oldVersion int64
	err = b.db.View(func(txn *badger.Txn) error {
		oldVersion, err = readVersion(txn)
		return err
	})
	if err != nil {
		return err
	}
	newVersion := oldVersion + 1

	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	batch := b.db.NewWriteBatch()
	defer batch.Cancel()

	if err := batch.Set([]byte(recordsKey), data); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := batch.Set([]byte(versionKey), encodeVersion(newVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	for _, blob := range blobs {
		encoded, err := json.Marshal(blob)
		if err != nil {
			return fmt.Errorf("failed to encode blob %s: %w", blob.ID, err)
		}
		if err := batch.Set([]byte(blobPrefix+blob.ID), encoded); err != nil {
			return fmt.Errorf("failed to write blob %s: %w", blob.ID, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("failed to flush restore batch: %w", err)
	}

	b.logger.Info("Store restored from archive",
		slog.Int("records", len(records)),
		slog.Int("blobs", len(blobs)),
		slog.Int64("version", newVersion),
	)

	b.notify(notify.Event{Kind: "restore", Version: newVersion})
	return nil
}

// Close closes the underlying badger database.
func (b *BadgerStore) Close() error {
	b.logger.Info("Closing badger store")
	return b.db.Close()
}

func (b *BadgerStore) notify(ev notify.Event) {
	if b.notifier != nil {
		b.notifier.Notify(ev)
	}
}

func readVersion(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(versionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read version: %w", err)
	}

	var version int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("malformed version value (%d bytes)", len(val))
		}
		version = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return version, err
}

func encodeVersion(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}
