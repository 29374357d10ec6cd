// Package sensor holds the Sensor model: named rule sets of dependencies and
// triggers, loaded from argo-events style manifests.
package sensor

import (
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/filter"
)

const (
	// Kind is the manifest kind this package loads.
	Kind = "Sensor"

	// OperationSubmit creates a new workflow instance from the template.
	OperationSubmit Operation = "submit"
)

// Operation is the action a trigger performs against the workflow executor.
type Operation string

// Sensor watches inbound events and fires its triggers when every dependency matches.
type Sensor struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       Spec     `json:"spec"`

	// file is the manifest the sensor was loaded from.
	file string
}

// Metadata identifies a sensor.
type Metadata struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// Spec is the ordered list of dependencies and triggers.
type Spec struct {
	Dependencies []Dependency `json:"dependencies"`
	Triggers     []Trigger    `json:"triggers"`
}

// Dependency is a named predicate group that must fully match.
type Dependency struct {
	Name            string   `json:"name"`
	EventSourceName string   `json:"eventSourceName,omitempty"`
	EventName       string   `json:"eventName,omitempty"`
	Filters         *Filters `json:"filters,omitempty"`
}

// Filters groups the predicates of a dependency.
type Filters struct {
	Data []filter.Predicate `json:"data,omitempty"`
}

// Trigger is an action executed when the sensor's dependencies match.
type Trigger struct {
	Template TriggerTemplate `json:"template"`
}

// TriggerTemplate names the trigger and describes what it does.
type TriggerTemplate struct {
	Name         string               `json:"name"`
	ArgoWorkflow *ArgoWorkflowTrigger `json:"argoWorkflow,omitempty"`
}

// ArgoWorkflowTrigger submits a workflow built from a persisted template.
type ArgoWorkflowTrigger struct {
	Operation  Operation   `json:"operation"`
	Source     Source      `json:"source"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Source locates the workflow template.
type Source struct {
	ConfigMap *ConfigMapKeySelector `json:"configmap,omitempty"`
}

// ConfigMapKeySelector references a key inside a ConfigMap. Namespace
// defaults to the sensor's namespace.
type ConfigMapKeySelector struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Key       string `json:"key"`
}

// Parameter copies a value from the event into the submitted workflow.
type Parameter struct {
	Src  ParameterSource `json:"src"`
	Dest string          `json:"dest"`
}

// ParameterSource is a path into the envelope with an optional default.
type ParameterSource struct {
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
}

// Name returns the sensor name.
func (s *Sensor) Name() string {
	return s.Metadata.Name
}

// File returns the manifest path the sensor was loaded from, if any.
func (s *Sensor) File() string {
	return s.file
}

// Name returns the trigger name.
func (t Trigger) Name() string {
	return t.Template.Name
}

// Predicates returns the dependency's data filters in order.
func (d Dependency) Predicates() []filter.Predicate {
	if d.Filters == nil {
		return nil
	}
	return d.Filters.Data
}

// Evaluate matches env against the dependency's event source (when one is
// named) and its predicates. A source mismatch yields an unmatched result
// with no predicate outcomes.
func (d Dependency) Evaluate(env *core.Envelope) filter.Result {
	if !d.acceptsSource(env) {
		return filter.Result{}
	}
	return filter.Evaluate(env, d.Predicates())
}

func (d Dependency) acceptsSource(env *core.Envelope) bool {
	if env == nil {
		return false
	}
	if d.EventSourceName != "" && d.EventSourceName != env.Source {
		return false
	}
	if d.EventName != "" && d.EventName != env.EventName {
		return false
	}
	return true
}

// TemplateRef resolves where the trigger's workflow template lives.
// fallbackNamespace is used when neither the selector nor the sensor name one.
func (s *Sensor) TemplateRef(t Trigger, fallbackNamespace string) (core.TemplateRef, bool) {
	if t.Template.ArgoWorkflow == nil || t.Template.ArgoWorkflow.Source.ConfigMap == nil {
		return core.TemplateRef{}, false
	}
	cm := t.Template.ArgoWorkflow.Source.ConfigMap
	ns := cm.Namespace
	if ns == "" {
		ns = s.Metadata.Namespace
	}
	if ns == "" {
		ns = fallbackNamespace
	}
	return core.TemplateRef{Namespace: ns, Name: cm.Name, Key: cm.Key}, true
}
