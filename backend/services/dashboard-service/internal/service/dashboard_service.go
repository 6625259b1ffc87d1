package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/cache"
	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/repository"
)

// ViewReader is the read side of the store used by the dashboard.
type ViewReader interface {
	QueryView(ctx context.Context, name string) (models.ViewResult, error)
}

// DashboardService loads aggregate views and derives the headline metrics.
type DashboardService struct {
	views  ViewReader
	cache  cache.ViewCache
	logger *zap.Logger
}

// NewDashboardService returns service. viewCache may be nil.
func NewDashboardService(views ViewReader, viewCache cache.ViewCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		views:  views,
		cache:  viewCache,
		logger: logger,
	}
}

// View returns one view, consulting the request memo and the shared cache first.
func (s *DashboardService) View(ctx context.Context, name string) (models.ViewResult, error) {
	memo := cache.MemoFromContext(ctx)
	if result, ok := memo.Load(name); ok {
		return result, nil
	}

	if s.cache != nil {
		result, ok, err := s.cache.Get(ctx, name)
		if err != nil {
			s.logger.Warn("view cache read failed", zap.String("view", name), zap.Error(err))
		} else if ok {
			memo.Store(name, result)
			return result, nil
		}
	}

	result, err := s.views.QueryView(ctx, name)
	if err != nil {
		return models.ViewResult{}, err
	}
	memo.Store(name, result)

	if s.cache != nil {
		if err := s.cache.Set(ctx, name, result); err != nil {
			s.logger.Warn("view cache write failed", zap.String("view", name), zap.Error(err))
		}
	}
	return result, nil
}

// Dashboard loads every dashboard view plus the summary.
func (s *DashboardService) Dashboard(ctx context.Context) (models.Dashboard, error) {
	views := make(map[string]models.ViewResult, len(models.DashboardViews))
	for _, name := range models.DashboardViews {
		result, err := s.View(ctx, name)
		if err != nil {
			return models.Dashboard{}, fmt.Errorf("load view %s: %w", name, err)
		}
		views[name] = result
	}
	return models.Dashboard{Summary: BuildSummary(views), Views: views}, nil
}

// InvalidateOnSync is a SyncHook dropping cached views once new rows land.
func (s *DashboardService) InvalidateOnSync(ctx context.Context, report models.SyncReport) {
	if s.cache == nil || report.Inserted == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("view cache invalidation failed", zap.Error(err))
	}
}

// BuildSummary derives headline metrics from the view results.
func BuildSummary(views map[string]models.ViewResult) models.Summary {
	var summary models.Summary

	if avg, ok := views[models.ViewAvgTempByDevice]; ok {
		summary.Devices = len(avg.Rows)
		var weighted float64
		for _, row := range avg.Rows {
			count, _ := toFloat(row["readings"])
			mean, ok := toFloat(row["avg_temperature"])
			if !ok {
				continue
			}
			summary.TotalReadings += int64(count)
			weighted += mean * count
		}
		if summary.TotalReadings > 0 {
			overall := weighted / float64(summary.TotalReadings)
			summary.AvgTemperature = &overall
		}
	}

	if days, ok := views[models.ViewTempRangeByDay]; ok {
		for _, row := range days.Rows {
			day := dayLabel(row["day"])
			if hi, ok := toFloat(row["max_temperature"]); ok && (summary.HottestTemp == nil || hi > *summary.HottestTemp) {
				v := hi
				summary.HottestTemp, summary.HottestDay = &v, day
			}
			if lo, ok := toFloat(row["min_temperature"]); ok && (summary.ColdestTemp == nil || lo < *summary.ColdestTemp) {
				v := lo
				summary.ColdestTemp, summary.ColdestDay = &v, day
			}
		}
	}

	return summary
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func dayLabel(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.UTC().Format(time.DateOnly)
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, d); err == nil {
			return ts.UTC().Format(time.DateOnly)
		}
		return d
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}

var _ ViewReader = (repository.ReadingStore)(nil)
