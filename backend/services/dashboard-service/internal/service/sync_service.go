package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/ingest"
	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/repository"
)

// ErrSyncFailed wraps every store failure of a sync pass.
var ErrSyncFailed = errors.New("sync: store operation failed")

// SyncHook is invoked after every successful pass.
type SyncHook func(ctx context.Context, report models.SyncReport)

// SyncService reads the readings file and appends rows the store has not seen yet.
type SyncService struct {
	store      repository.ReadingStore
	normalizer *ingest.Normalizer
	source     string
	delimiter  rune
	logger     *zap.Logger

	// mu serializes passes so two triggers never race on the existing-ids read.
	mu sync.Mutex

	// stateMu guards hooks and last; it is never held during a pass.
	stateMu sync.Mutex
	hooks   []SyncHook
	last    *models.SyncReport
	now     func() time.Time
}

// NewSyncService builds service for the file at source.
func NewSyncService(store repository.ReadingStore, normalizer *ingest.Normalizer, source string, delimiter rune, logger *zap.Logger) *SyncService {
	if normalizer == nil {
		normalizer = ingest.NewNormalizer(nil, nil, nil)
	}
	return &SyncService{
		store:      store,
		normalizer: normalizer,
		source:     source,
		delimiter:  delimiter,
		logger:     logger,
		now:        time.Now,
	}
}

// Source returns the path of the readings file.
func (s *SyncService) Source() string {
	return s.source
}

// OnSynced registers a hook run after each successful pass.
func (s *SyncService) OnSynced(hook SyncHook) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// LastReport returns the report of the latest successful pass.
func (s *SyncService) LastReport() (models.SyncReport, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.last == nil {
		return models.SyncReport{}, false
	}
	return *s.last, true
}

// Sync runs one pass: read, normalize, diff against stored ids, append the new rows.
func (s *SyncService) Sync(ctx context.Context) (models.SyncReport, error) {
	s.mu.Lock()
	report, err := s.syncLocked(ctx)
	s.mu.Unlock()

	s.stateMu.Lock()
	if err == nil {
		s.last = &report
	}
	hooks := append([]SyncHook(nil), s.hooks...)
	s.stateMu.Unlock()

	if err != nil {
		s.logger.Error("sync pass failed", zap.String("source", s.source), zap.Error(err))
		return report, err
	}

	s.logger.Info("sync pass finished",
		zap.String("source", report.Source),
		zap.Int("rows_read", report.RowsRead),
		zap.Int("already_present", report.AlreadyPresent),
		zap.Int("duplicates_in_batch", report.DuplicatesInBatch),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	for _, hook := range hooks {
		hook(ctx, report)
	}
	return report, nil
}

func (s *SyncService) syncLocked(ctx context.Context) (models.SyncReport, error) {
	started := s.now()
	report := models.SyncReport{Source: s.source, StartedAt: started.UTC()}

	table, err := ingest.ReadFile(s.source, s.delimiter)
	if err != nil {
		return report, err
	}
	batch, err := s.normalizer.Normalize(table)
	if err != nil {
		return report, fmt.Errorf("%s: %w", s.source, err)
	}
	report.RowsRead = len(batch.Readings)
	report.Skipped = batch.SkippedTotal()
	for reason, n := range batch.Skipped {
		s.logger.Debug("rows skipped", zap.String("reason", string(reason)), zap.Int("count", n))
	}

	existing, err := s.store.ExistingIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: read existing ids: %w", ErrSyncFailed, err)
	}

	fresh, present, duplicates := Deduplicate(batch.Readings, existing)
	report.AlreadyPresent = present
	report.DuplicatesInBatch = duplicates

	if len(fresh) > 0 {
		inserted, err := s.store.Append(ctx, fresh)
		if err != nil {
			return report, fmt.Errorf("%w: append %d readings: %w", ErrSyncFailed, len(fresh), err)
		}
		report.Inserted = int(inserted)
	}

	report.Duration = s.now().Sub(started)
	return report, nil
}

// Deduplicate keeps readings whose record_id is neither in existing nor seen earlier in
// the batch. The first occurrence of a repeated id wins.
func Deduplicate(batch []models.Reading, existing map[string]struct{}) (fresh []models.Reading, present, duplicates int) {
	seen := make(map[string]struct{}, len(batch))
	for _, r := range batch {
		if _, ok := existing[r.RecordID]; ok {
			present++
			continue
		}
		if _, ok := seen[r.RecordID]; ok {
			duplicates++
			continue
		}
		seen[r.RecordID] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh, present, duplicates
}
