package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jobtrack/jobtrack-be/internal/api/dto"
	"github.com/jobtrack/jobtrack-be/internal/domain"
	"github.com/jobtrack/jobtrack-be/internal/liveness"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// IngestCandidate handles POST /api/v1/records/ingest
// Runs one candidate posting through dedup, merge, and liveness re-check
func (h *RecordHandler) IngestCandidate(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	h.logger.Info("IngestCandidate called",
		slog.String("url", req.URL),
		slog.String("company", req.Company),
		slog.String("title", req.Title),
	)

	// A page re-firing its mutation observers produces bursts of identical
	// observations; drop repeats inside the debounce window up front.
	if !h.debouncer.Allow(req.URL) {
		c.JSON(http.StatusAccepted, gin.H{
			"outcome": "debounced",
		})
		return
	}

	cand := domain.Candidate{
		URL:               req.URL,
		Website:           req.Website,
		Title:             req.Title,
		Company:           req.Company,
		Location:          req.Location,
		RoleType:          req.RoleType,
		Salary:            req.Salary,
		DatePosted:        req.DatePosted,
		Duration:          req.Duration,
		WorkAuthorization: req.WorkAuthorization,
		JobDescription:    req.JobDescription,
	}

	outcome, record, err := h.pipeline.Ingest(c.Request.Context(), cand)
	if err != nil {
		h.logger.Error("Failed to ingest candidate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to ingest candidate",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": string(outcome),
		"record":  record,
	})
}

// ListRecords handles GET /api/v1/records
// Lists records in store order with optional free-text search
func (h *RecordHandler) ListRecords(c *gin.Context) {
	var req dto.ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
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

	records := snap.Records
	if req.Query != "" {
		filtered := make([]domain.JobRecord, 0, len(records))
		for _, rec := range records {
			if matchesQuery(rec, req.Query) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"version": snap.Version,
	})
}

// GetRecord handles GET /api/v1/records/:record_id
func (h *RecordHandler) GetRecord(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
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

	c.JSON(http.StatusOK, rec)
}

// UpdateRecord handles PATCH /api/v1/records/:record_id
// Updates the user-owned lifecycle fields: applied status and note
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	h.logger.Info("UpdateRecord called",
		slog.String("record_id", recordID),
	)

	var updated domain.JobRecord
	_, err := store.Update(c.Request.Context(), h.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			if records[i].ID != recordID {
				continue
			}
			if req.Applied != nil {
				records[i].SetApplied(*req.Applied, h.now())
			}
			if req.Note != nil {
				records[i].Note = *req.Note
			}
			updated = records[i]
			return records, true, nil
		}
		return records, false, domain.ErrRecordNotFound
	})
	if err != nil {
		h.respondUpdateError(c, err, recordID)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteRecord handles DELETE /api/v1/records/:record_id
// Removes the record and best-effort deletes its attachment blobs
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	h.logger.Info("DeleteRecord called",
		slog.String("record_id", recordID),
	)

	var deleted domain.JobRecord
	_, err := store.Update(c.Request.Context(), h.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			if records[i].ID != recordID {
				continue
			}
			deleted = records[i]
			return append(records[:i:i], records[i+1:]...), true, nil
		}
		return records, false, domain.ErrRecordNotFound
	})
	if err != nil {
		h.respondUpdateError(c, err, recordID)
		return
	}

	// Cascade is best effort: the record is already gone, so a failed blob
	// delete leaves an orphan, never a dangling reference.
	for _, blobID := range []string{deleted.CVFileID, deleted.CoverLetterFileID} {
		if blobID == "" {
			continue
		}
		if err := h.store.DeleteBlob(c.Request.Context(), blobID); err != nil {
			h.logger.Warn("Failed to delete attachment blob",
				slog.String("record_id", recordID),
				slog.String("blob_id", blobID),
				slog.String("error", err.Error()),
			)
		}
	}

	c.Status(http.StatusNoContent)
}

// RecheckRecord handles POST /api/v1/records/:record_id/recheck
// Probes the record immediately, bypassing the 24h due window
func (h *RecordHandler) RecheckRecord(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	h.logger.Info("RecheckRecord called",
		slog.String("record_id", recordID),
	)

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

	// Probe with no lock held, then write back through the retry path.
	reachable := h.prober.Probe(c.Request.Context(), rec.URL)

	var updated domain.JobRecord
	_, err = store.Update(c.Request.Context(), h.store, func(records []domain.JobRecord) ([]domain.JobRecord, bool, error) {
		for i := range records {
			if records[i].ID != recordID {
				continue
			}
			records[i] = liveness.ApplyCheckResult(records[i], reachable, h.now())
			updated = records[i]
			return records, true, nil
		}
		return records, false, domain.ErrRecordNotFound
	})
	if err != nil {
		h.respondUpdateError(c, err, recordID)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// recordID extracts and validates the :record_id path parameter.
func (h *RecordHandler) recordID(c *gin.Context) (string, bool) {
	recordID := c.Param("record_id")
	if _, err := uuid.Parse(recordID); err != nil {
		h.logger.Error("Invalid record_id format",
			slog.String("record_id", recordID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "record_id must be a valid UUID",
		})
		return "", false
	}
	return recordID, true
}

func (h *RecordHandler) respondUpdateError(c *gin.Context, err error, recordID string) {
	if errors.Is(err, domain.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Record not found",
		})
		return
	}

	h.logger.Error("Failed to update record",
		slog.String("record_id", recordID),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to update record",
	})
}

// matchesQuery reports whether any identifying or descriptive field of the
// record contains the query, case-insensitively.
func matchesQuery(rec domain.JobRecord, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	fields := []string{
		rec.Title, rec.Company, rec.Location, rec.RoleType,
		rec.Salary, rec.DatePosted, rec.Duration,
		rec.WorkAuthorization, rec.JobDescription,
		rec.URL, rec.Website, rec.Note,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
