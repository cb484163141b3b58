package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the configuration file and notifies subscribers.
// Reloading is only enabled in development; in production the watcher is
// inert and Current always returns the initial config.
type Watcher struct {
	mu        sync.RWMutex
	config    *Config
	path      string
	callbacks []func(*Config)
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a watcher over the given config file
func NewWatcher(initial *Config, path string, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config: initial,
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development || path == "" {
		logger.Info("configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory rather than the file itself: editors replace
	// files on save, which drops a direct file watch.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	w.watcher = fsWatcher
	go w.watchLoop()

	logger.Info("configuration hot reloading enabled", zap.String("path", path))
	return w, nil
}

// Current returns the active configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnReload registers a callback invoked after each successful reload
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop shuts the watcher down
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration",
			zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
