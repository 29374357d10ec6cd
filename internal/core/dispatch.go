package core

import (
	"context"
	"time"
)

// DispatchState is the terminal (or intermediate) state a sensor reaches
// while processing a single inbound event.
type DispatchState string

const (
	StateReceived       DispatchState = "RECEIVED"
	StateFiltering      DispatchState = "FILTERING"
	StateNoMatch        DispatchState = "NO_MATCH"
	StateMatched        DispatchState = "MATCHED"
	StateDispatching    DispatchState = "DISPATCHING"
	StateCompleted      DispatchState = "COMPLETED"
	StatePartialFailure DispatchState = "PARTIAL_FAILURE"
)

// Terminal reports whether no further transitions follow s.
func (s DispatchState) Terminal() bool {
	switch s {
	case StateNoMatch, StateCompleted, StatePartialFailure:
		return true
	default:
		return false
	}
}

// TriggerOutcome is the recorded result of firing a single trigger.
type TriggerOutcome struct {
	Sensor       string
	Trigger      string
	EventID      string
	Repository   string
	HeadSHA      string
	Template     TemplateRef
	WorkflowName string
	Attempts     int
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
}

// Succeeded reports whether the trigger produced a workflow instance.
func (o TriggerOutcome) Succeeded() bool {
	return o.Err == nil && o.WorkflowName != ""
}

// DispatchReport summarises what a sensor did for one event.
type DispatchReport struct {
	Sensor   string
	EventID  string
	State    DispatchState
	Outcomes []TriggerOutcome
}

// Failed returns the outcomes of triggers that did not submit a workflow.
func (r DispatchReport) Failed() []TriggerOutcome {
	var failed []TriggerOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// DispatchRecorder persists trigger outcomes for later inspection.
type DispatchRecorder interface {
	RecordOutcome(ctx context.Context, outcome TriggerOutcome) error
}

// StatusReporter publishes a trigger outcome back to the source control
// provider, e.g. as a commit status on the pushed revision.
type StatusReporter interface {
	Report(ctx context.Context, env *Envelope, outcome TriggerOutcome) error
}
