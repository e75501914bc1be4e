package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack/jobtrack-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jobtrack-api-service",
		})
	})

	// Initialize record handler
	recordHandler := handler.NewRecordHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		records := v1.Group("/records")
		{
			// POST /api/v1/records/ingest - Ingest a scraped candidate posting
			records.POST("/ingest", recordHandler.IngestCandidate)

			// GET /api/v1/records - List records with optional ?q= search
			records.GET("", recordHandler.ListRecords)

			// GET /api/v1/records/:record_id - Get record details
			records.GET("/:record_id", recordHandler.GetRecord)

			// PATCH /api/v1/records/:record_id - Update applied status / note
			records.PATCH("/:record_id", recordHandler.UpdateRecord)

			// DELETE /api/v1/records/:record_id - Delete record and its blobs
			records.DELETE("/:record_id", recordHandler.DeleteRecord)

			// POST /api/v1/records/:record_id/recheck - Probe liveness now
			records.POST("/:record_id/recheck", recordHandler.RecheckRecord)

			// POST /api/v1/records/:record_id/attachments/:kind - Upload CV or cover letter
			records.POST("/:record_id/attachments/:kind", recordHandler.UploadAttachment)

			// GET /api/v1/records/:record_id/attachments/:kind - Download attachment
			records.GET("/:record_id/attachments/:kind", recordHandler.DownloadAttachment)
		}

		// GET /api/v1/export/csv, /api/v1/export/json - Export the collection
		v1.GET("/export/csv", recordHandler.ExportCSV)
		v1.GET("/export/json", recordHandler.ExportJSON)

		// GET /api/v1/backup - ZIP backup; POST /api/v1/restore - replace store
		v1.GET("/backup", recordHandler.ExportArchive)
		v1.POST("/restore", recordHandler.ImportArchive)

		// GET /api/v1/stats - Collection summary
		v1.GET("/stats", recordHandler.GetStats)

		// GET /api/v1/events - SSE store-change stream
		v1.GET("/events", recordHandler.StreamEvents)
	}

	return r
}
