package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tokenauth/pkg/logging"
)

const (
	// DefaultDebounceInterval collapses the burst of events a single
	// credential save produces into one callback.
	DefaultDebounceInterval = 200 * time.Millisecond

	// DefaultWatchInterval is the polling interval used when fsnotify is unavailable.
	DefaultWatchInterval = 2 * time.Second
)

// WatcherConfig holds configuration for the storage file watcher.
type WatcherConfig struct {
	// Path is the storage file to watch.
	Path string

	// Debounce is the quiet period after the last change before OnChange runs.
	Debounce time.Duration

	// WatchInterval is the fallback polling interval.
	WatchInterval time.Duration

	// OnChange is called after the file was written, replaced or removed.
	OnChange func()
}

// Watcher notices when another process rewrites the credentials file, so the
// in-memory session can be reloaded without waiting for the next request.
type Watcher struct {
	mu sync.Mutex

	config    WatcherConfig
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool
	lastMod   time.Time

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given file.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	return &Watcher{config: config}
}

// Start begins watching. It watches the containing directory because the
// file itself is replaced on every save.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("StorageWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}

	dir := filepath.Dir(w.config.Path)
	if err := watcher.Add(dir); err != nil {
		logging.Warn("StorageWatcher", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges(w.stopCh)
		return nil
	}
	w.fsWatcher = watcher

	go w.processEvents(w.stopCh, watcher.Events, watcher.Errors)

	logging.Debug("StorageWatcher", "Started watching %s", w.config.Path)
	return nil
}

func (w *Watcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("StorageWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.config.Path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("StorageWatcher", "Storage file changed: %s (%s)", event.Name, event.Op)
	w.triggerDebounced()
}

func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("StorageWatcher", "Storage file change detected via polling")
				w.triggerDebounced()
			}
		}
	}
}

// checkForChanges compares the file's modification time with the last one seen.
func (w *Watcher) checkForChanges() bool {
	var mod time.Time
	if info, err := os.Stat(w.config.Path); err == nil {
		mod = info.ModTime()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	changed := !mod.Equal(w.lastMod)
	w.lastMod = mod
	return changed
}

// Stop stops the watcher and cancels any pending callback.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("StorageWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
