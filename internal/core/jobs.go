package core

import (
	"context"
)

// JobDispatcher defines the contract for a system that can accept and queue
// inbound events for asynchronous evaluation. This interface decouples the
// event source (e.g., a webhook handler) from the sensor evaluation mechanism.
type JobDispatcher interface {
	// Dispatch accepts an Envelope and queues it for processing.
	// It returns an error if the event cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, env *Envelope) error
	// Stop waits for queued events to finish and releases the workers.
	Stop()
}

// Job represents a single, executable unit of work run for every queued
// Envelope, such as evaluating all loaded sensors against it.
type Job interface {
	// Run executes the job's logic. It returns an error only for problems
	// that prevented evaluation altogether; per-trigger failures are
	// reported through the dispatch sinks instead.
	Run(ctx context.Context, env *Envelope) error
}
