// Package archive packs the full store into a portable ZIP backup and
// restores it losslessly: one jobs.json manifest holding the record
// collection, plus one files/<blobID>_<originalFilename> entry per
// referenced attachment.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

const (
	manifestName = "jobs.json"
	filesPrefix  = "files/"
	// nameDelimiter separates the blob id from the original filename in an
	// entry name. Generated ids are UUIDs, which never contain it.
	nameDelimiter = "_"
)

var (
	// ErrMissingManifest means the archive has no jobs.json entry.
	ErrMissingManifest = errors.New("archive is missing the jobs.json manifest")
	// ErrCorruptEntry means an archive entry could not be read or decoded.
	ErrCorruptEntry = errors.New("archive entry is corrupt")
)

// Codec exports and imports store archives.
type Codec struct {
	store  store.Store
	logger *slog.Logger
}

// NewCodec returns a codec bound to a store.
func NewCodec(s store.Store, logger *slog.Logger) *Codec {
	return &Codec{store: s, logger: logger}
}

// Export serializes the record collection and every referenced blob. A
// dangling attachment reference is skipped, matching how reads treat it as
// "not uploaded".
func (c *Codec) Export(ctx context.Context) ([]byte, error) {
	snap, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest, err := json.MarshalIndent(snap.Records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	w, err := zw.Create(manifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest entry: %w", err)
	}
	if _, err := w.Write(manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	written := make(map[string]bool)
	for _, rec := range snap.Records {
		for _, blobID := range []string{rec.CVFileID, rec.CoverLetterFileID} {
			if blobID == "" || written[blobID] {
				continue
			}
			blob, err := c.store.GetBlob(ctx, blobID)
			if errors.Is(err, store.ErrBlobNotFound) {
				c.logger.Warn("Skipping dangling attachment reference",
					slog.String("record_id", rec.ID),
					slog.String("blob_id", blobID),
				)
				continue
			}
			if err != nil {
				return nil, err
			}

			w, err := zw.Create(filesPrefix + blob.ID + nameDelimiter + blob.Filename)
			if err != nil {
				return nil, fmt.Errorf("failed to create blob entry: %w", err)
			}
			if _, err := w.Write(blob.Data); err != nil {
				return nil, fmt.Errorf("failed to write blob %s: %w", blob.ID, err)
			}
			written[blobID] = true
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	c.logger.Info("Archive exported",
		slog.Int("records", len(snap.Records)),
		slog.Int("blobs", len(written)),
		slog.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// Import parses the archive fully in memory and then replaces the store
// content — replace semantics, not merge, so callers must warn the user
// first. A parse failure leaves the existing store untouched. It returns
// the number of restored records.
func (c *Codec) Import(ctx context.Context, data []byte) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	var records []domain.JobRecord
	var blobs []domain.AttachmentBlob
	manifestSeen := false

	for _, f := range zr.File {
		switch {
		case f.Name == manifestName:
			content, err := readEntry(f)
			if err != nil {
				return 0, err
			}
			if err := json.Unmarshal(content, &records); err != nil {
				return 0, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
			}
			manifestSeen = true

		case strings.HasPrefix(f.Name, filesPrefix):
			content, err := readEntry(f)
			if err != nil {
				return 0, err
			}
			id, filename := splitBlobName(strings.TrimPrefix(f.Name, filesPrefix))
			blobs = append(blobs, domain.AttachmentBlob{ID: id, Filename: filename, Data: content})
		}
	}

	if !manifestSeen {
		return 0, ErrMissingManifest
	}
	if records == nil {
		records = []domain.JobRecord{}
	}

	if err := c.store.Restore(ctx, records, blobs); err != nil {
		return 0, err
	}

	c.logger.Info("Archive imported",
		slog.Int("records", len(records)),
		slog.Int("blobs", len(blobs)),
	)

	return len(records), nil
}

// splitBlobName splits "<id>_<filename>" on the first delimiter. A name
// with no delimiter is treated as a bare id with an empty filename, for
// forward compatibility with older backups.
func splitBlobName(name string) (id, filename string) {
	idx := strings.Index(name, nameDelimiter)
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+len(nameDelimiter):]
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	return content, nil
}
