package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"scrollwatch/internal/eventbus"
)

// Watcher reloads a config file when it changes on disk
type Watcher struct {
	svc      ConfigService
	bus      eventbus.EventBus
	path     string
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for path. onChange receives every successfully
// reloaded config; invalid files are logged and skipped.
func NewWatcher(svc ConfigService, bus eventbus.EventBus, path string, onChange func(*Config)) *Watcher {
	return &Watcher{
		svc:      svc,
		bus:      bus,
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: 100 * time.Millisecond,
	}
}

// Run watches until ctx is canceled
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files by rename, so watch the directory rather than the file.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.svc.LoadFromPath(w.path)
	if err != nil {
		log.Printf("Failed to reload config: %v", err)
		if w.bus != nil {
			w.bus.Publish(eventbus.ErrorEvent{Message: "config reload failed", Err: err})
		}
		return
	}

	log.Printf("Config reloaded from %s", w.path)
	if w.bus != nil {
		w.bus.Publish(eventbus.ConfigChangedEvent{Path: w.path, Settings: cfg.Settings()})
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
