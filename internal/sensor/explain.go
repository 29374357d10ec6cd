package sensor

import (
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/filter"
)

// PredicateReport is the outcome of one predicate against an event.
type PredicateReport struct {
	Path     string        `json:"path" yaml:"path"`
	Type     filter.Type   `json:"type" yaml:"type"`
	Values   []string      `json:"values" yaml:"values"`
	Matched  bool          `json:"matched" yaml:"matched"`
	Reason   filter.Reason `json:"reason" yaml:"reason"`
	Resolved any           `json:"resolved,omitempty" yaml:"resolved,omitempty"`
}

// DependencyReport explains why a dependency did or did not match.
type DependencyReport struct {
	Name string `json:"name" yaml:"name"`
	// SourceMismatch is set when the event came from another source or event name.
	SourceMismatch bool              `json:"sourceMismatch,omitempty" yaml:"sourceMismatch,omitempty"`
	Matched        bool              `json:"matched" yaml:"matched"`
	Predicates     []PredicateReport `json:"predicates" yaml:"predicates"`
}

// Explanation is the full evaluation of a sensor against one event.
type Explanation struct {
	Sensor       string             `json:"sensor" yaml:"sensor"`
	Matched      bool               `json:"matched" yaml:"matched"`
	Dependencies []DependencyReport `json:"dependencies" yaml:"dependencies"`
	// Triggers lists the triggers that would fire, in order.
	Triggers []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Explain evaluates every dependency of s against env without stopping at
// the first failure.
func (s *Sensor) Explain(env *core.Envelope) Explanation {
	exp := Explanation{Sensor: s.Name(), Matched: true}
	for _, d := range s.Spec.Dependencies {
		dr := DependencyReport{Name: d.Name}
		if !d.acceptsSource(env) {
			dr.SourceMismatch = true
		} else {
			res := d.Evaluate(env)
			dr.Matched = res.Matched
			for _, o := range res.Outcomes {
				dr.Predicates = append(dr.Predicates, PredicateReport{
					Path:     o.Predicate.Path,
					Type:     o.Predicate.Type,
					Values:   o.Predicate.Value,
					Matched:  o.Matched,
					Reason:   o.Reason,
					Resolved: o.Resolved,
				})
			}
		}
		if !dr.Matched {
			exp.Matched = false
		}
		exp.Dependencies = append(exp.Dependencies, dr)
	}
	if exp.Matched {
		for _, t := range s.Spec.Triggers {
			exp.Triggers = append(exp.Triggers, t.Name())
		}
	}
	return exp
}
