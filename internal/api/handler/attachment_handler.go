package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// Attachment kinds accepted in the :kind path parameter.
const (
	attachmentCV          = "cv"
	attachmentCoverLetter = "cover-letter"
)

// maxAttachmentSize caps uploads; CVs and cover letters are small documents.
const maxAttachmentSize = 10 << 20 // 10 MiB

// UploadAttachment handles POST /api/v1/records/:record_id/attachments/:kind
// Stores the uploaded file as a blob and points the record at it. The blob
// write happens before the record update so a crash in between leaves an
// orphaned blob, never a dangling reference.
func (h *RecordHandler) UploadAttachment(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	kind := c.Param("kind")
	if kind != attachmentCV && kind != attachmentCoverLetter {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("kind must be %q or %q", attachmentCV, attachmentCoverLetter),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file field is required",
		})
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file is too large",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}

	h.logger.Info("UploadAttachment called",
		slog.String("record_id", recordID),
		slog.String("kind", kind),
		slog.String("filename", fileHeader.Filename),
		slog.Int("bytes", len(data)),
	)

	blobID, err := h.store.PutBlob(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		h.logger.Error("Failed to store attachment blob", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store attachment",
		})
		return
	}

	var previousID string
	_, err = store.Update(c.Request.Context(), h.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			if records[i].ID != recordID {
				continue
			}
			if kind == attachmentCV {
				previousID = records[i].CVFileID
				records[i].CVFileID = blobID
			} else {
				previousID = records[i].CoverLetterFileID
				records[i].CoverLetterFileID = blobID
			}
			return records, true, nil
		}
		return records, false, domain.ErrRecordNotFound
	})
	if err != nil {
		// The record update never happened; drop the blob we just wrote.
		if delErr := h.store.DeleteBlob(c.Request.Context(), blobID); delErr != nil {
			h.logger.Warn("Failed to clean up orphaned blob",
				slog.String("blob_id", blobID),
				slog.String("error", delErr.Error()),
			)
		}
		h.respondUpdateError(c, err, recordID)
		return
	}

	// The replaced blob is unreferenced now; deleting it is best effort.
	if previousID != "" {
		if err := h.store.DeleteBlob(c.Request.Context(), previousID); err != nil {
			h.logger.Warn("Failed to delete replaced blob",
				slog.String("blob_id", previousID),
				slog.String("error", err.Error()),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"blob_id":  blobID,
		"filename": fileHeader.Filename,
	})
}

// DownloadAttachment handles GET /api/v1/records/:record_id/attachments/:kind
// A missing reference or a dangling one both answer 404 "not uploaded".
func (h *RecordHandler) DownloadAttachment(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	kind := c.Param("kind")
	if kind != attachmentCV && kind != attachmentCoverLetter {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("kind must be %q or %q", attachmentCV, attachmentCoverLetter),
		})
		return
	}

	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load records",
		})
		return
	}

	rec := snap.FindByID(recordID)
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Record not found",
		})
		return
	}

	blobID := rec.CVFileID
	if kind == attachmentCoverLetter {
		blobID = rec.CoverLetterFileID
	}
	if blobID == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Attachment not uploaded",
		})
		return
	}

	blob, err := h.store.GetBlob(c.Request.Context(), blobID)
	if errors.Is(err, store.ErrBlobNotFound) {
		// Dangling reference; reads tolerate it as "not uploaded".
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Attachment not uploaded",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to read attachment blob",
			slog.String("blob_id", blobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read attachment",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	c.Data(http.StatusOK, "application/octet-stream", blob.Data)
}
