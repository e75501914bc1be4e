package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

// MemoryStore is a map-backed Store with the same optimistic-versioning
// semantics as the durable backends. It backs tests and is handy for
// throwaway runs; nothing survives the process.
type MemoryStore struct {
	mu      sync.Mutex
	version int64
	records []domain.JobRecord
	blobs   map[string]domain.AttachmentBlob
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]domain.AttachmentBlob)}
}

// Load returns the current record collection and its version.
func (m *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]domain.JobRecord, len(m.records))
	copy(records, m.records)
	return Snapshot{Version: m.version, Records: records}, nil
}

// Save writes the collection back under the optimistic version check.
func (m *MemoryStore) Save(ctx context.Context, snap Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.version != snap.Version {
		return 0, ErrWriteConflict
	}

	m.records = make([]domain.JobRecord, len(snap.Records))
	copy(m.records, snap.Records)
	m.version++
	return m.version, nil
}

// PutBlob stores an attachment payload under a generated id.
func (m *MemoryStore) PutBlob(ctx context.Context, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[id] = domain.AttachmentBlob{ID: id, Filename: filename, Data: buf}
	return id, nil
}

// GetBlob returns the blob for id, or ErrBlobNotFound.
func (m *MemoryStore) GetBlob(ctx context.Context, id string) (domain.AttachmentBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.blobs[id]
	if !ok {
		return domain.AttachmentBlob{}, ErrBlobNotFound
	}
	return blob, nil
}

// DeleteBlob removes a blob. Unknown ids are ignored.
func (m *MemoryStore) DeleteBlob(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, id)
	return nil
}

// Restore destructively replaces records and blobs.
func (m *MemoryStore) Restore(ctx context.Context, records []domain.JobRecord, blobs []domain.AttachmentBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make([]domain.JobRecord, len(records))
	copy(m.records, records)
	m.blobs = make(map[string]domain.AttachmentBlob, len(blobs))
	for _, blob := range blobs {
		m.blobs[blob.ID] = blob
	}
	m.version++
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
