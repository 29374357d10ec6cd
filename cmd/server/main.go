package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/climateengine/build-sensor/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed to run", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	go func() {
		if err := app.Start(ctx); err != nil {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(quit)

wait:
	for {
		select {
		case sig := <-quit:
			if sig == syscall.SIGHUP {
				slog.Info("received SIGHUP, reloading sensors")
				if err := app.Reload(); err != nil {
					slog.Error("sensor reload failed, keeping previous set", "error", err)
				}
				continue
			}
			slog.Info("received shutdown signal", "signal", sig.String())
			break wait
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down")
			break wait
		}
	}

	// Stop the watcher before draining.
	cancel()
	if err := app.Stop(context.Background()); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
