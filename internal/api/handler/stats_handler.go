package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack/jobtrack-be/internal/api/dto"
)

// GetStats handles GET /api/v1/stats
// Summarizes the collection: totals and per-day logged counts
func (h *RecordHandler) GetStats(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load records",
		})
		return
	}

	stats := dto.StatsResponse{
		Total:  len(snap.Records),
		PerDay: make(map[string]int),
	}
	for _, rec := range snap.Records {
		if rec.Applied {
			stats.Completed++
		} else {
			stats.Pending++
		}
		stats.PerDay[rec.DateLogged.Format("2006-01-02")]++
	}

	c.JSON(http.StatusOK, stats)
}
