// Package trigger fires the triggers of sensors whose dependencies matched
// an inbound event.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/sensor"
)

const (
	LabelSensor  = "build-sensor.io/sensor"
	LabelTrigger = "build-sensor.io/trigger"
	LabelEventID = "build-sensor.io/event-id"
)

// ErrUnsupportedOperation is returned for triggers that are not Argo
// Workflow submissions.
var ErrUnsupportedOperation = errors.New("unsupported trigger operation")

// MetricsSink receives dispatch counters. Implementations must not block.
type MetricsSink interface {
	SensorEvaluated(sensor string, state core.DispatchState)
	TriggerFired(outcome core.TriggerOutcome)
}

// Dispatcher submits workflows for matched sensors.
type Dispatcher struct {
	templates core.TemplateStore
	submitter core.WorkflowSubmitter
	logger    *slog.Logger

	recorder  core.DispatchRecorder
	reporter  core.StatusReporter
	metrics   MetricsSink
	backoff   wait.Backoff
	namespace string
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBackoff overrides DefaultBackoff.
func WithBackoff(b wait.Backoff) Option {
	return func(d *Dispatcher) {
		if b.Steps < 1 {
			b.Steps = 1
		}
		d.backoff = b
	}
}

// WithNamespace sets the namespace workflows are created in when the
// template does not name one.
func WithNamespace(ns string) Option {
	return func(d *Dispatcher) { d.namespace = ns }
}

func WithRecorder(r core.DispatchRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithStatusReporter(r core.StatusReporter) Option {
	return func(d *Dispatcher) { d.reporter = r }
}

func WithMetrics(m MetricsSink) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher. Recorder, status reporter and metrics
// are optional and may be nil.
func NewDispatcher(templates core.TemplateStore, submitter core.WorkflowSubmitter, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates: templates,
		submitter: submitter,
		logger:    logger,
		backoff:   DefaultBackoff,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process runs one sensor against one event: it evaluates every dependency
// and, when all of them match, dispatches the sensor's triggers.
func (d *Dispatcher) Process(ctx context.Context, s *sensor.Sensor, env *core.Envelope) core.DispatchReport {
	report := core.DispatchReport{Sensor: s.Name(), State: core.StateReceived}
	if env == nil {
		report.State = core.StateNoMatch
		d.observe(report)
		return report
	}
	report.EventID = env.ID
	logger := d.logger.With("sensor", report.Sensor, "event_id", report.EventID)

	report.State = core.StateFiltering
	for _, dep := range s.Spec.Dependencies {
		res := dep.Evaluate(env)
		if res.Matched {
			continue
		}
		report.State = core.StateNoMatch
		if o, ok := res.FirstFailure(); ok {
			logger.Debug("dependency not satisfied", "dependency", dep.Name, "path", o.Predicate.Path, "reason", o.Reason)
		} else {
			logger.Debug("dependency not satisfied", "dependency", dep.Name, "reason", "source")
		}
		d.observe(report)
		return report
	}

	report.State = core.StateMatched
	logger.Info("sensor matched", "triggers", len(s.Spec.Triggers))

	report = d.Dispatch(ctx, s, env)
	d.observe(report)
	return report
}

// Dispatch fires every trigger of s exactly once, in declaration order. A
// failing trigger never prevents or rolls back its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, s *sensor.Sensor, env *core.Envelope) core.DispatchReport {
	report := core.DispatchReport{
		Sensor:   s.Name(),
		EventID:  env.ID,
		State:    core.StateDispatching,
		Outcomes: make([]core.TriggerOutcome, 0, len(s.Spec.Triggers)),
	}

	for _, t := range s.Spec.Triggers {
		outcome := d.fire(ctx, s, t, env)
		d.publish(ctx, env, outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if len(report.Failed()) > 0 {
		report.State = core.StatePartialFailure
	} else {
		report.State = core.StateCompleted
	}
	return report
}

func (d *Dispatcher) fire(ctx context.Context, s *sensor.Sensor, t sensor.Trigger, env *core.Envelope) core.TriggerOutcome {
	start := d.now()
	outcome := core.TriggerOutcome{
		Sensor:     s.Name(),
		Trigger:    t.Name(),
		EventID:    env.ID,
		Repository: env.Repository(),
		HeadSHA:    env.HeadSHA(),
		StartedAt:  start,
	}
	defer func() { outcome.Duration = d.now().Sub(start) }()

	spec := t.Template.ArgoWorkflow
	if spec == nil || spec.Operation != sensor.OperationSubmit {
		outcome.Err = ErrUnsupportedOperation
		return outcome
	}

	ref, ok := s.TemplateRef(t, d.namespace)
	if !ok {
		outcome.Err = fmt.Errorf("%w: trigger has no configmap source", core.ErrTemplateNotFound)
		return outcome
	}
	outcome.Template = ref

	var raw []byte
	_, err := withRetry(ctx, d.backoff, func() error {
		var getErr error
		raw, getErr = d.templates.Get(ctx, ref)
		return getErr
	})
	if err != nil {
		outcome.Err = fmt.Errorf("fetch template %s: %w", ref, err)
		return outcome
	}

	wf, err := DecodeWorkflow(raw)
	if err != nil {
		outcome.Err = fmt.Errorf("template %s: %w", ref, err)
		return outcome
	}
	if err := ApplyParameters(wf, spec.Parameters, env); err != nil {
		outcome.Err = err
		return outcome
	}
	labelWorkflow(wf, outcome)

	namespace := wf.GetNamespace()
	if namespace == "" {
		namespace = d.namespace
	}
	if namespace == "" {
		namespace = ref.Namespace
	}

	var name string
	outcome.Attempts, err = withRetry(ctx, d.backoff, func() error {
		var submitErr error
		name, submitErr = d.submitter.Submit(ctx, namespace, wf)
		return submitErr
	})
	if err != nil {
		outcome.Err = fmt.Errorf("%w: %w", core.ErrSubmissionFailed, err)
		return outcome
	}
	outcome.WorkflowName = name
	return outcome
}

// labelWorkflow tags wf with its origin. Values that are not valid label
// values (long or exotic event IDs) go to annotations only.
func labelWorkflow(wf *unstructured.Unstructured, o core.TriggerOutcome) {
	labels := wf.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	annotations := wf.GetAnnotations()
	if annotations == nil {
		annotations = map[string]string{}
	}
	for key, value := range map[string]string{
		LabelSensor:  o.Sensor,
		LabelTrigger: o.Trigger,
		LabelEventID: o.EventID,
	} {
		annotations[key] = value
		if len(validation.IsValidLabelValue(value)) == 0 {
			labels[key] = value
		}
	}
	wf.SetLabels(labels)
	wf.SetAnnotations(annotations)
}

func (d *Dispatcher) publish(ctx context.Context, env *core.Envelope, o core.TriggerOutcome) {
	logger := d.logger.With("sensor", o.Sensor, "trigger", o.Trigger, "event_id", o.EventID)
	if o.Err != nil {
		logger.Error("trigger failed", "template", o.Template.String(), "attempts", o.Attempts, "error", o.Err)
	} else {
		logger.Info("workflow submitted", "workflow", o.WorkflowName, "attempts", o.Attempts, "duration", o.Duration)
	}

	if d.metrics != nil {
		d.metrics.TriggerFired(o)
	}
	if d.recorder != nil {
		if err := d.recorder.RecordOutcome(ctx, o); err != nil {
			logger.Warn("failed to record trigger outcome", "error", err)
		}
	}
	if d.reporter != nil {
		if err := d.reporter.Report(ctx, env, o); err != nil {
			logger.Warn("failed to report commit status", "error", err)
		}
	}
}

func (d *Dispatcher) observe(report core.DispatchReport) {
	if d.metrics != nil {
		d.metrics.SensorEvaluated(report.Sensor, report.State)
	}
}
