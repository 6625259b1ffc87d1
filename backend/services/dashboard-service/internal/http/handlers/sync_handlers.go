package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/http/middleware"
	"tempdash/backend/services/dashboard-service/internal/ingest"
	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/service"
)

// Syncer runs sync passes and remembers the last one.
type Syncer interface {
	Sync(ctx context.Context) (models.SyncReport, error)
	LastReport() (models.SyncReport, bool)
}

// SyncHandlers exposes sync passes over HTTP.
type SyncHandlers struct {
	syncer Syncer
	logger *zap.Logger
}

// NewSyncHandlers returns handlers.
func NewSyncHandlers(syncer Syncer, logger *zap.Logger) *SyncHandlers {
	return &SyncHandlers{syncer: syncer, logger: logger}
}

// Trigger handles POST /api/sync.
func (h *SyncHandlers) Trigger(w http.ResponseWriter, r *http.Request) {
	operator, _ := middleware.OperatorFromContext(r.Context())
	h.logger.Info("sync requested", zap.String("operator", operator))

	report, err := h.syncer.Sync(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrSourceUnavailable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrSyncFailed):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "sync failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Last handles GET /api/sync/last.
func (h *SyncHandlers) Last(w http.ResponseWriter, r *http.Request) {
	report, ok := h.syncer.LastReport()
	if !ok {
		writeError(w, http.StatusNotFound, "no sync pass completed yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
