package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack/jobtrack-be/internal/archive"
	"github.com/jobtrack/jobtrack-be/internal/export"
)

// ExportCSV handles GET /api/v1/export/csv
func (h *RecordHandler) ExportCSV(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load records",
		})
		return
	}

	filename := fmt.Sprintf("jobs_%s.csv", h.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, snap.Records); err != nil {
		h.logger.Error("Failed to write CSV export", slog.String("error", err.Error()))
	}
}

// ExportJSON handles GET /api/v1/export/json
func (h *RecordHandler) ExportJSON(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load records",
		})
		return
	}

	filename := fmt.Sprintf("jobs_%s.json", h.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	if err := export.WriteJSON(c.Writer, snap.Records); err != nil {
		h.logger.Error("Failed to write JSON export", slog.String("error", err.Error()))
	}
}

// ExportArchive handles GET /api/v1/backup
// Streams the full ZIP backup: record manifest plus every attachment blob
func (h *RecordHandler) ExportArchive(c *gin.Context) {
	data, err := h.codec.Export(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to export archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export archive",
		})
		return
	}

	filename := fmt.Sprintf("jobs_backup_%s.zip", h.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", data)
}

// ImportArchive handles POST /api/v1/restore
// Replaces the whole store with the uploaded backup. Replace, not merge:
// the UI warns before calling this.
func (h *RecordHandler) ImportArchive(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file field is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded archive",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded archive",
		})
		return
	}

	h.logger.Info("ImportArchive called",
		slog.String("filename", fileHeader.Filename),
		slog.Int("bytes", len(data)),
	)

	start := time.Now()
	count, err := h.codec.Import(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, archive.ErrMissingManifest) || errors.Is(err, archive.ErrCorruptEntry) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.Error("Failed to import archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to import archive",
		})
		return
	}

	h.logger.Info("Archive import complete",
		slog.Int("records", count),
		slog.Duration("took", time.Since(start)),
	)

	c.JSON(http.StatusOK, gin.H{
		"records": count,
	})
}
