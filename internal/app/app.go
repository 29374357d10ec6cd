// Package app runs the sensor service: the HTTP server, the event workers
// and the sensor manifest watcher.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/climateengine/build-sensor/internal/config"
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/sensor"
	"github.com/climateengine/build-sensor/internal/server"
)

const shutdownTimeout = 30 * time.Second

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	registry   *sensor.Registry
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp assembles the application from its wired components.
func NewApp(cfg *config.Config, srv *server.Server, registry *sensor.Registry, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start runs the manifest watcher (when enabled) and the HTTP server. It
// blocks until the server stops.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("starting build sensor",
		"server_port", a.cfg.Server.Port,
		"sensors", a.registry.Len(),
		"sensors_dir", a.registry.Dir(),
		"max_workers", a.cfg.Dispatch.MaxWorkers,
		"queue_size", a.cfg.Dispatch.QueueSize,
	)

	if a.cfg.Sensors.Watch {
		go func() {
			if err := a.registry.Watch(ctx); err != nil {
				a.logger.Error("sensor manifest watcher stopped", "error", err)
			}
		}()
	}

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Reload re-reads the sensor manifests. The active set is kept on error.
func (a *App) Reload() error {
	return a.registry.Reload()
}

// Stop shuts the server down first so no new events are accepted, then
// waits for queued events to be evaluated.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("shutting down build sensor")

	serverErr := a.server.Stop(ctx, shutdownTimeout)
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return errors.Join(errors.New("build sensor stopped with errors"), serverErr)
	}
	a.logger.Info("build sensor stopped")
	return nil
}
