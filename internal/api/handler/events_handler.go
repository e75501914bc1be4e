package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval keeps idle SSE connections from being reaped by
// intermediaries.
const heartbeatInterval = 30 * time.Second

// StreamEvents handles GET /api/v1/events
// Pushes store-change events over SSE so the UI can re-render. Clients
// reload from the store on any event; the payload is only a hint.
func (h *RecordHandler) StreamEvents(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	h.logger.Info("Event stream opened",
		slog.String("ip", c.ClientIP()),
	)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("Event stream closed by client")
			return

		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()

		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("Failed to encode event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(c.Writer, "event: change\ndata: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}
