package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateengine/build-sensor/internal/core"
)

func newTestSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusSink(reg, slog.New(slog.NewTextHandler(io.Discard, nil))), reg
}

func TestPrometheusSink_TriggerFired(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.TriggerFired(core.TriggerOutcome{Sensor: "api", Trigger: "build", WorkflowName: "wf-1", Attempts: 2, Duration: time.Second})
	sink.TriggerFired(core.TriggerOutcome{Sensor: "api", Trigger: "build", Err: fmt.Errorf("get: %w", core.ErrTemplateNotFound)})
	sink.TriggerFired(core.TriggerOutcome{Sensor: "api", Trigger: "build", Err: core.ErrSubmissionFailed, Attempts: 4})

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.triggersTotal.WithLabelValues("api", "build", OutcomeSubmitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.triggersTotal.WithLabelValues("api", "build", OutcomeTemplateNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.triggersTotal.WithLabelValues("api", "build", OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.submitAttemptsTotal.WithLabelValues("1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.submitAttemptsTotal.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.submitAttemptsTotal.WithLabelValues("4")))
}

func TestPrometheusSink_EventsAndSensors(t *testing.T) {
	sink, reg := newTestSink(t)

	sink.EventProcessed("github", "build", 1)
	sink.EventProcessed("github", "build", 0)
	sink.EventRejected("queue_full")
	sink.SensorEvaluated("api", core.StateNoMatch)
	sink.SensorEvaluated("api", core.StateCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.eventsTotal.WithLabelValues("github", "build")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.eventsRejectedTotal.WithLabelValues("queue_full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.evaluationsTotal.WithLabelValues("api", "NO_MATCH")))

	count, err := testutil.GatherAndCount(reg, "build_sensor_event_matched_sensors")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusSink_SensorsLoadedGauge(t *testing.T) {
	sink, reg := newTestSink(t)
	loaded := 3
	sink.RegisterSensorsLoaded(reg, func() int { return loaded })

	count, err := testutil.GatherAndCount(reg, "build_sensor_sensors_loaded")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusSink_DuplicateRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	NewPrometheusSink(reg, logger)

	assert.NotPanics(t, func() {
		sink := NewPrometheusSink(reg, logger)
		sink.EventRejected("malformed")
	})
}
