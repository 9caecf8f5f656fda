package noterepo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the store's notes directory and reloads the repository
// when records change underneath us, e.g. after a jj operation or a sync
// from another machine. Events are debounced because a single external
// operation usually touches many files in a burst.
type Watcher struct {
	repo     *Repository
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	onReload func()
}

// NewWatcher creates a watcher for dir that reloads repo after changes
// settle for the debounce interval. onReload, if non-nil, is called after
// every successful reload so the UI can refresh.
func NewWatcher(repo *Repository, dir string, debounce time.Duration, logger *slog.Logger, onReload func()) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		repo:     repo,
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("noterepo: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("noterepo: watch %q: %w", w.dir, err)
	}
	w.logger.Info("watching notes directory", "dir", w.dir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			if err := w.repo.Load(); err != nil {
				w.logger.Error("reload after external change failed", "error", err)
				continue
			}
			w.logger.Debug("reloaded after external change")
			if w.onReload != nil {
				w.onReload()
			}
		}
	}
}
