package sensor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long the watcher waits after the last change
// before reloading the manifests directory.
const reloadDebounce = time.Second

// Registry holds the currently active sensors. Readers get an immutable
// snapshot; reloads swap the whole set atomically.
type Registry struct {
	dir     string
	logger  *slog.Logger
	sensors atomic.Pointer[[]*Sensor]
	mu      sync.Mutex // serialises reloads
}

// NewRegistry creates an empty registry backed by the manifests in dir.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	r := &Registry{dir: dir, logger: logger}
	empty := []*Sensor{}
	r.sensors.Store(&empty)
	return r
}

// Dir returns the manifests directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Sensors returns the current snapshot. Callers must not modify it.
func (r *Registry) Sensors() []*Sensor {
	return *r.sensors.Load()
}

// Len returns the number of active sensors.
func (r *Registry) Len() int {
	return len(r.Sensors())
}

// Set replaces the active sensors.
func (r *Registry) Set(sensors []*Sensor) {
	cp := make([]*Sensor, len(sensors))
	copy(cp, sensors)
	r.sensors.Store(&cp)
}

// Reload loads the manifests directory and swaps the active set. On error
// the previous set stays active.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sensors, err := LoadDir(r.dir)
	if err != nil {
		r.logger.Error("failed to reload sensors, keeping previous set", "dir", r.dir, "error", err, "active", r.Len())
		return err
	}
	r.Set(sensors)

	names := make([]string, 0, len(sensors))
	for _, s := range sensors {
		names = append(names, s.Name())
	}
	r.logger.Info("sensors loaded", "dir", r.dir, "count", len(sensors), "sensors", names)
	return nil
}

// isWatchedName reports whether a change to name can alter the manifest set.
// A ConfigMap volume is updated by swapping the "..data" symlink to a new
// "..<timestamp>" directory; the manifest symlinks themselves never change.
func isWatchedName(name string) bool {
	return IsManifestFile(name) || strings.HasPrefix(name, "..")
}

// Watch reloads the registry whenever a manifest in the directory changes.
// It blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return err
	}
	r.logger.Info("watching sensor manifests", "dir", r.dir)

	var debounceTimer *time.Timer
	debounceCh := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isWatchedName(filepath.Base(event.Name)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case <-debounceCh:
			r.logger.Info("sensor manifests changed, reloading")
			_ = r.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("manifest watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
