package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/repository"
)

// DashboardReader loads view data.
type DashboardReader interface {
	View(ctx context.Context, name string) (models.ViewResult, error)
	Dashboard(ctx context.Context) (models.Dashboard, error)
}

// DashboardHandlers serves aggregate views.
type DashboardHandlers struct {
	reader DashboardReader
	logger *zap.Logger
}

// NewDashboardHandlers returns handlers.
func NewDashboardHandlers(reader DashboardReader, logger *zap.Logger) *DashboardHandlers {
	return &DashboardHandlers{reader: reader, logger: logger}
}

// Dashboard handles GET /api/dashboard.
func (h *DashboardHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reader.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// View handles GET /api/views/{name}.
func (h *DashboardHandlers) View(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/views/"), "/")
	if name == "" {
		writeJSON(w, http.StatusOK, map[string][]string{"views": models.DashboardViews})
		return
	}

	result, err := h.reader.View(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownView) {
			writeError(w, http.StatusNotFound, "unknown view")
			return
		}
		h.logger.Error("failed to load view", zap.String("view", name), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load view")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
