package handler

import (
	"log/slog"
	"time"

	"github.com/jobtrack/jobtrack-be/internal/archive"
	"github.com/jobtrack/jobtrack-be/internal/ingest"
	"github.com/jobtrack/jobtrack-be/internal/liveness"
	"github.com/jobtrack/jobtrack-be/internal/notify"
	"github.com/jobtrack/jobtrack-be/internal/store"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Store     store.Store
	Pipeline  *ingest.Pipeline
	Codec     *archive.Codec
	Debouncer *ingest.Debouncer
	Prober    liveness.Prober
	Hub       *notify.Hub

	// Now overrides the handler's time source; nil means time.Now.
	Now func() time.Time
}

// RecordHandler handles record-related HTTP requests
type RecordHandler struct {
	logger    *slog.Logger
	store     store.Store
	pipeline  *ingest.Pipeline
	codec     *archive.Codec
	debouncer *ingest.Debouncer
	prober    liveness.Prober
	hub       *notify.Hub
	now       func() time.Time
}

// NewRecordHandler creates a new RecordHandler instance
func NewRecordHandler(deps *Dependencies) *RecordHandler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &RecordHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		pipeline:  deps.Pipeline,
		codec:     deps.Codec,
		debouncer: deps.Debouncer,
		prober:    deps.Prober,
		hub:       deps.Hub,
		now:       now,
	}
}
