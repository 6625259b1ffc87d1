package cache

import (
	"context"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// ViewCache stores view results between requests.
type ViewCache interface {
	Get(ctx context.Context, name string) (models.ViewResult, bool, error)
	Set(ctx context.Context, name string, result models.ViewResult) error
	Invalidate(ctx context.Context) error
}
