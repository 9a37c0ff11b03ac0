package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/legopi/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the config file whenever it changes and hands valid
// configs to the registered handlers.
type Watcher struct {
	path     string
	debounce time.Duration
	mu       sync.Mutex
	handlers []func(*LegoPiConfig)
	log      *logrus.Entry
}

// NewWatcher creates a watcher for the given file.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		log:      logger.GetProjectLogger().WithField("config", path),
	}
}

// OnReload registers a handler called with every successfully reloaded config.
func (w *Watcher) OnReload(handler func(*LegoPiConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Run watches the file until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer fw.Close()

	// Watch the directory, editors often replace the file instead of writing it.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errors.WithStackTraceAndPrefix(err, "watching %s", w.path)
	}
	w.log.Info("watching config for changes")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("config watcher error")
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.WithError(err).Warn("failed to reload config, keeping the current one")
		return
	}
	if err := cfg.Validate(); err != nil {
		w.log.WithError(err).Warn("reloaded config is invalid, keeping the current one")
		return
	}
	w.log.Info("config reloaded")

	w.mu.Lock()
	handlers := append([]func(*LegoPiConfig){}, w.handlers...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(cfg)
	}
}
