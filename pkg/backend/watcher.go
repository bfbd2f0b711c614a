package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period applied before a change
// notification fires.
const DefaultDebounceInterval = 200 * time.Millisecond

// Watcher reports changes to a FileStore's document so hosts can react when
// the backend location changes, whether through the config endpoint, another
// gateway instance, or an operator editing the file.
//
// The parent directory is watched rather than the file itself: the store
// replaces the file by rename, which would silently detach a watch
// registered on the old inode.
type Watcher struct {
	store    *FileStore
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce *Debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the given store. A non-positive interval
// falls back to DefaultDebounceInterval.
func NewWatcher(store *FileStore, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:    store,
		logger:   logger.With("component", "backend_watcher"),
		watcher:  fsw,
		debounce: NewDebouncer(interval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, invoking onChange with the freshly resolved origin after
// each debounced change to the store file. It returns when the context is
// cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context, onChange func(origin string)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	dir := filepath.Dir(w.store.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watched directory: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	w.logger.Info("Backend store watcher started",
		"path", w.store.Path(),
		"debounce_ms", w.debounce.interval.Milliseconds(),
	)

	base := filepath.Base(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Backend store watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("Backend store watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !shouldProcessEvent(event, base) {
				continue
			}

			w.logger.Debug("Backend store file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.Trigger(func() {
				origin := w.store.Read()
				w.logger.Info("Backend location changed on disk",
					"backend_url", origin,
				)
				onChange(origin)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Backend store watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and cancels any pending notification.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// shouldProcessEvent filters directory events down to mutations of the store
// file itself. Chmod-only events are noise; temp files from atomic writes
// carry a different base name and are skipped.
func shouldProcessEvent(event fsnotify.Event, base string) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Base(event.Name) == base
}

// Debouncer collapses rapid event bursts, invoking the callback once after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger arms the debouncer. The most recent callback fires after the
// interval elapses without another trigger.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
