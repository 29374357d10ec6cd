// Package metrics exposes dispatch counters to Prometheus.
package metrics

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/climateengine/build-sensor/internal/core"
)

const namespace = "build_sensor"

// Trigger outcome label values.
const (
	OutcomeSubmitted        = "submitted"
	OutcomeTemplateNotFound = "template_not_found"
	OutcomeFailed           = "failed"
)

// PrometheusSink records event, sensor and trigger metrics. All methods are
// non-blocking. Registration errors are logged and never propagated.
type PrometheusSink struct {
	eventsTotal         *prometheus.CounterVec
	eventsRejectedTotal *prometheus.CounterVec
	matchedSensors      prometheus.Histogram
	evaluationsTotal    *prometheus.CounterVec
	triggersTotal       *prometheus.CounterVec
	submitAttemptsTotal *prometheus.CounterVec
	triggerDuration     prometheus.Histogram

	logger *slog.Logger
}

// NewPrometheusSink creates the sink and registers its collectors on reg.
func NewPrometheusSink(reg prometheus.Registerer, logger *slog.Logger) *PrometheusSink {
	s := &PrometheusSink{logger: logger}

	s.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Inbound events accepted for evaluation.",
	}, []string{"source", "event"})
	s.eventsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_rejected_total",
		Help:      "Inbound deliveries rejected before evaluation.",
	}, []string{"reason"})
	s.matchedSensors = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_matched_sensors",
		Help:      "Number of sensors matched by a single event.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25},
	})
	s.evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensor_evaluations_total",
		Help:      "Sensor evaluations by final state.",
	}, []string{"sensor", "state"})
	s.triggersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "triggers_total",
		Help:      "Fired triggers by outcome.",
	}, []string{"sensor", "trigger", "outcome"})
	s.submitAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submit_attempts_total",
		Help:      "Workflow submission attempts, including retries.",
	}, []string{"attempt"})
	s.triggerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "trigger_duration_seconds",
		Help:      "Time from template fetch to workflow creation, including backoff.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.register(reg, s.eventsTotal)
	s.register(reg, s.eventsRejectedTotal)
	s.register(reg, s.matchedSensors)
	s.register(reg, s.evaluationsTotal)
	s.register(reg, s.triggersTotal)
	s.register(reg, s.submitAttemptsTotal)
	s.register(reg, s.triggerDuration)
	return s
}

// RegisterSensorsLoaded exposes the size of the loaded sensor set as a gauge.
func (s *PrometheusSink) RegisterSensorsLoaded(reg prometheus.Registerer, count func() int) {
	s.register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sensors_loaded",
		Help:      "Number of sensors currently loaded.",
	}, func() float64 { return float64(count()) }))
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector) {
	if err := reg.Register(c); err != nil {
		s.logger.Warn("failed to register metric", "error", err)
	}
}

// EventProcessed is called once per evaluated event.
func (s *PrometheusSink) EventProcessed(source, event string, matched int) {
	s.eventsTotal.WithLabelValues(source, event).Inc()
	s.matchedSensors.Observe(float64(matched))
}

// EventRejected counts deliveries refused by the HTTP layer.
func (s *PrometheusSink) EventRejected(reason string) {
	s.eventsRejectedTotal.WithLabelValues(reason).Inc()
}

func (s *PrometheusSink) SensorEvaluated(sensor string, state core.DispatchState) {
	s.evaluationsTotal.WithLabelValues(sensor, string(state)).Inc()
}

func (s *PrometheusSink) TriggerFired(o core.TriggerOutcome) {
	s.triggersTotal.WithLabelValues(o.Sensor, o.Trigger, outcomeLabel(o)).Inc()
	for i := 1; i <= o.Attempts; i++ {
		s.submitAttemptsTotal.WithLabelValues(strconv.Itoa(i)).Inc()
	}
	s.triggerDuration.Observe(o.Duration.Seconds())
}

func outcomeLabel(o core.TriggerOutcome) string {
	switch {
	case o.Succeeded():
		return OutcomeSubmitted
	case errors.Is(o.Err, core.ErrTemplateNotFound):
		return OutcomeTemplateNotFound
	default:
		return OutcomeFailed
	}
}
