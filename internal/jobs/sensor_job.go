package jobs

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/sensor"
)

// SensorSource returns the sensors an event is evaluated against.
type SensorSource interface {
	Sensors() []*sensor.Sensor
}

// Processor evaluates one sensor against one event and fires its triggers.
type Processor interface {
	Process(ctx context.Context, s *sensor.Sensor, env *core.Envelope) core.DispatchReport
}

// EventObserver is told about every event a job evaluates.
type EventObserver interface {
	EventProcessed(source, event string, matched int)
}

// SensorJob evaluates every loaded sensor against an event.
type SensorJob struct {
	sensors   SensorSource
	processor Processor
	observer  EventObserver
	limit     int
	logger    *slog.Logger
}

// NewSensorJob creates the job run for every queued event. limit bounds how
// many sensors are evaluated at once; zero or less means unbounded.
func NewSensorJob(sensors SensorSource, processor Processor, observer EventObserver, limit int, logger *slog.Logger) *SensorJob {
	if sensors == nil {
		panic("sensor source cannot be nil")
	}
	if processor == nil {
		panic("processor cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &SensorJob{sensors: sensors, processor: processor, observer: observer, limit: limit, logger: logger}
}

// Run evaluates a snapshot of the sensors concurrently. Sensors never fail
// the job; their outcomes are reported through the dispatcher sinks.
func (j *SensorJob) Run(ctx context.Context, env *core.Envelope) error {
	snapshot := j.sensors.Sensors()
	if len(snapshot) == 0 {
		j.logger.Warn("no sensors loaded, event ignored", "event_id", env.ID)
		return nil
	}

	reports := make([]core.DispatchReport, len(snapshot))
	g, ctx := errgroup.WithContext(ctx)
	if j.limit > 0 {
		g.SetLimit(j.limit)
	}
	for i, s := range snapshot {
		g.Go(func() error {
			reports[i] = j.processor.Process(ctx, s, env)
			return nil
		})
	}
	_ = g.Wait()

	matched := 0
	for _, r := range reports {
		if r.State != core.StateNoMatch {
			matched++
		}
	}
	j.logger.Info("event evaluated",
		"event_id", env.ID,
		"source", env.Source,
		"sensors", len(snapshot),
		"matched", matched,
	)
	if j.observer != nil {
		j.observer.EventProcessed(env.Source, env.EventName, matched)
	}
	return nil
}
