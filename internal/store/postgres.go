package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/notify"
	"github.com/jobtrack/jobtrack-be/shared/postgresql"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS job_store (
	id       SMALLINT PRIMARY KEY CHECK (id = 1),
	version  BIGINT NOT NULL,
	records  JSONB  NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
	blob_id  UUID  PRIMARY KEY,
	filename TEXT  NOT NULL,
	data     BYTEA NOT NULL
);
`

// PostgresStore persists the record collection as a single versioned
// document row, so the optimistic version check is one guarded UPDATE.
// Attachments live in their own table, keyed independently.
type PostgresStore struct {
	db       *sqlx.DB
	client   *postgresql.Client
	logger   *slog.Logger
	notifier notify.Notifier
}

// NewPostgresStore prepares the schema and seeds the document row.
func NewPostgresStore(ctx context.Context, client *postgresql.Client, logger *slog.Logger, notifier notify.Notifier) (*PostgresStore, error) {
	db := client.GetDB()

	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("failed to prepare store schema: %w", err)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO job_store (id, version, records) VALUES (1, 0, '[]') ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("failed to seed store row: %w", err)
	}

	return &PostgresStore{db: db, client: client, logger: logger, notifier: notifier}, nil
}

// Load returns the current record collection and its version.
func (p *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var row struct {
		Version int64  `db:"version"`
		Records []byte `db:"records"`
	}

	err := p.db.GetContext(ctx, &row, `SELECT version, records FROM job_store WHERE id = 1`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load store: %w", err)
	}

	snap := Snapshot{Version: row.Version, Records: []domain.JobRecord{}}
	if err := json.Unmarshal(row.Records, &snap.Records); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode records: %w", err)
	}
	return snap, nil
}

// Save writes the collection back, guarded by the version check.
func (p *PostgresStore) Save(ctx context.Context, snap Snapshot) (int64, error) {
	data, err := json.Marshal(snap.Records)
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE job_store SET records = $1, version = version + 1 WHERE id = 1 AND version = $2`,
		data, snap.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save store: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to inspect save result: %w", err)
	}
	if affected == 0 {
		return 0, ErrWriteConflict
	}

	newVersion := snap.Version + 1
	p.notify(notify.Event{Kind: "records", Version: newVersion})
	return newVersion, nil
}

// PutBlob stores an attachment payload under a generated id.
func (p *PostgresStore) PutBlob(ctx context.Context, filename string, data []byte) (string, error) {
	id := uuid.New().String()

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO attachments (blob_id, filename, data) VALUES ($1, $2, $3)`,
		id, filename, data,
	)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	p.notify(notify.Event{Kind: "blobs"})
	return id, nil
}

// GetBlob returns the blob for id, or ErrBlobNotFound.
func (p *PostgresStore) GetBlob(ctx context.Context, id string) (domain.AttachmentBlob, error) {
	var row struct {
		BlobID   string `db:"blob_id"`
		Filename string `db:"filename"`
		Data     []byte `db:"data"`
	}

	err := p.db.GetContext(ctx, &row,
		`SELECT blob_id, filename, data FROM attachments WHERE blob_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AttachmentBlob{}, ErrBlobNotFound
	}
	if err != nil {
		return domain.AttachmentBlob{}, fmt.Errorf("failed to read blob: %w", err)
	}

	return domain.AttachmentBlob{ID: row.BlobID, Filename: row.Filename, Data: row.Data}, nil
}

// DeleteBlob removes a blob. Unknown ids are ignored.
func (p *PostgresStore) DeleteBlob(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM attachments WHERE blob_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	p.notify(notify.Event{Kind: "blobs"})
	return nil
}

// Restore destructively replaces records and blobs in one transaction.
func (p *PostgresStore) Restore(ctx context.Context, records []domain.JobRecord, blobs []domain.AttachmentBlob) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	tx, err := p.client.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var newVersion int64
	err = tx.QueryRowContext(ctx,
		`UPDATE job_store SET records = $1, version = version + 1 WHERE id = 1 RETURNING version`,
		data,
	).Scan(&newVersion)
	if err != nil {
		return fmt.Errorf("failed to replace records: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments`); err != nil {
		return fmt.Errorf("failed to clear attachments: %w", err)
	}
	for _, blob := range blobs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attachments (blob_id, filename, data) VALUES ($1, $2, $3)`,
			blob.ID, blob.Filename, blob.Data,
		)
		if err != nil {
			return fmt.Errorf("failed to restore blob %s: %w", blob.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	p.logger.Info("Store restored from archive",
		slog.Int("records", len(records)),
		slog.Int("blobs", len(blobs)),
		slog.Int64("version", newVersion),
	)

	p.notify(notify.Event{Kind: "restore", Version: newVersion})
	return nil
}

// Close is a no-op; the shared PostgreSQL client owns the connection pool.
func (p *PostgresStore) Close() error {
	return nil
}

func (p *PostgresStore) notify(ev notify.Event) {
	if p.notifier != nil {
		p.notifier.Notify(ev)
	}
}
