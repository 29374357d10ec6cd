// Package jobs runs inbound events through the loaded sensors on a pool of
// background workers.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/climateengine/build-sensor/internal/core"
)

// DefaultQueueSize is used when the configured queue size is not positive.
const DefaultQueueSize = 100

var (
	// ErrQueueFull is returned by Dispatch when no queue slot is free.
	ErrQueueFull = errors.New("event queue is full")
	// ErrStopped is returned by Dispatch after Stop was called.
	ErrStopped = errors.New("dispatcher is stopped")
)

// dispatcher implements core.JobDispatcher with a bounded queue drained by
// a fixed number of workers.
type dispatcher struct {
	job        core.Job
	queue      chan *core.Envelope
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher starts maxWorkers workers (at least one) reading from a
// queue of queueSize envelopes.
func NewDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		queue:      make(chan *core.Envelope, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting sensor worker", "id", workerID)

	for env := range d.queue {
		d.process(workerID, env)
	}

	d.logger.Debug("sensor worker stopped", "id", workerID)
}

func (d *dispatcher) process(workerID int, env *core.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sensor job panicked", "worker_id", workerID, "event_id", env.ID, "panic", r)
		}
	}()

	d.logger.Debug("worker processing event", "worker_id", workerID, "event_id", env.ID, "event", env.Header("X-Github-Event"))
	if err := d.job.Run(context.Background(), env); err != nil {
		d.logger.Error("sensor job failed", "event_id", env.ID, "error", err)
	}
}

// Dispatch queues env without blocking.
func (d *dispatcher) Dispatch(_ context.Context, env *core.Envelope) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- env:
		d.logger.Debug("event queued", "event_id", env.ID, "source", env.Source)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new events and waits for queued ones to finish.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for queued events")
	d.wg.Wait()
	d.logger.Info("all queued events processed")
}
