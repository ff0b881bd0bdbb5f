// Package watch reloads the ontology when its file changes on disk. The
// parent directory is watched, not the file itself, because editors commonly
// replace files by rename; rapid saves are debounced before the reload
// callback fires.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"unireg/internal/logging"
)

// ReloadFunc is invoked once a change to the watched file has settled. An
// error keeps the previous state in place; the watcher keeps running.
type ReloadFunc func(ctx context.Context, path string) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	ReloadErrors  int
	LastEventTime time.Time
	LastEventType string
}

// Watcher watches one ontology file.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	reload      ReloadFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a watcher for the given file. Start must be called to begin
// watching.
func New(path string, reload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:     fsw,
		path:        abs,
		dir:         filepath.Dir(abs),
		reload:      reload,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; safe to call twice.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Watch("watching %s for changes to %s", w.dir, filepath.Base(w.path))

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the event loop to exit. Safe to call
// twice.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of watcher activity.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	sweep := time.NewTicker(100 * time.Millisecond)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watch error: %v", err)

		case <-sweep.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records an event for the watched file. Create, write, rename
// and remove all count: editors save through temp-file renames, and a remove
// may be followed by a recreate.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "write"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	case event.Op&fsnotify.Remove != 0:
		eventType = "remove"
	default:
		return
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventType = eventType
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled fires the reload for files whose last event is older than
// the debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for range settled {
		w.reloadFile(ctx)
	}
}

func (w *Watcher) reloadFile(ctx context.Context) {
	if _, err := os.Stat(w.path); err != nil {
		if os.IsNotExist(err) {
			logging.WatchDebug("file %s gone, keeping previous state", w.path)
			return
		}
		logging.Get(logging.CategoryWatch).Error("stat %s: %v", w.path, err)
		return
	}

	timer := logging.StartTimer(logging.CategoryWatch, "reload "+filepath.Base(w.path))
	err := w.reload(ctx, w.path)
	timer.Stop()

	w.mu.Lock()
	if err != nil {
		w.stats.ReloadErrors++
		logging.Get(logging.CategoryWatch).Error("reload of %s failed, keeping previous state: %v", w.path, err)
	} else {
		w.stats.Reloads++
		logging.Watch("reloaded %s", w.path)
	}
	w.mu.Unlock()
}
