package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// Syncer runs one sync pass.
type Syncer interface {
	Sync(ctx context.Context) (models.SyncReport, error)
}

// FileWatcher triggers a sync pass whenever the readings file is written or replaced.
type FileWatcher struct {
	path     string
	debounce time.Duration
	syncer   Syncer
	logger   *zap.Logger
}

// New returns watcher for path. Bursts of events within debounce collapse into one pass.
func New(path string, debounce time.Duration, syncer Syncer, logger *zap.Logger) *FileWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &FileWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		syncer:   syncer,
		logger:   logger,
	}
}

// Run watches the parent directory until ctx is done. The directory is watched rather
// than the file so atomic replace-by-rename is seen too.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watching readings file", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(evt) {
				continue
			}
			w.logger.Debug("readings file changed", zap.String("op", evt.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if _, err := w.syncer.Sync(ctx); err != nil {
				w.logger.Warn("sync triggered by file change failed", zap.Error(err))
			}
		}
	}
}

func (w *FileWatcher) relevant(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != w.path {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
