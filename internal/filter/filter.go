package filter

import (
	"strconv"

	"github.com/climateengine/build-sensor/internal/core"
)

// Reason explains a single predicate outcome.
type Reason string

const (
	ReasonMatched      Reason = "matched"
	ReasonMissingPath  Reason = "missing_path"
	ReasonTypeMismatch Reason = "type_mismatch"
	ReasonNotInSet     Reason = "not_in_set"
	ReasonInvalidType  Reason = "invalid_type"
)

// Outcome is the evaluation result of one predicate.
type Outcome struct {
	Predicate Predicate
	Matched   bool
	Reason    Reason
	// Resolved is the value found at the predicate path, if any.
	Resolved any
}

// Result is the evaluation of an ordered predicate sequence.
type Result struct {
	Matched  bool
	Outcomes []Outcome
}

// FirstFailure returns the first predicate outcome that did not match.
func (r Result) FirstFailure() (Outcome, bool) {
	for _, o := range r.Outcomes {
		if !o.Matched {
			return o, true
		}
	}
	return Outcome{}, false
}

// Evaluate reports whether every predicate matches env, with per-predicate
// detail. An empty sequence matches vacuously. Every predicate is evaluated
// even after one fails so callers can explain the decision.
func Evaluate(env *core.Envelope, preds []Predicate) Result {
	res := Result{Matched: true, Outcomes: make([]Outcome, 0, len(preds))}
	for _, p := range preds {
		o := evaluate(env, p)
		if !o.Matched {
			res.Matched = false
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	return res
}

func evaluate(env *core.Envelope, p Predicate) Outcome {
	out := Outcome{Predicate: p}
	if !p.Type.Valid() {
		out.Reason = ReasonInvalidType
		return out
	}

	v, ok := Resolve(env, p.Path)
	if !ok {
		out.Reason = ReasonMissingPath
		return out
	}
	out.Resolved = v

	var inSet, coerced bool
	switch p.Type {
	case TypeString:
		inSet, coerced = matchString(v, p.Value)
	case TypeNumber:
		inSet, coerced = matchNumber(v, p.Value)
	case TypeBool:
		inSet, coerced = matchBool(v, p.Value)
	}

	switch {
	case !coerced:
		out.Reason = ReasonTypeMismatch
	case !inSet:
		out.Reason = ReasonNotInSet
	default:
		out.Matched = true
		out.Reason = ReasonMatched
	}
	return out
}

func matchString(v any, set Values) (bool, bool) {
	s, ok := v.(string)
	if !ok {
		return false, false
	}
	for _, want := range set {
		if s == want {
			return true, true
		}
	}
	return false, true
}

func matchNumber(v any, set Values) (bool, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	default:
		return false, false
	}
	for _, want := range set {
		f, err := strconv.ParseFloat(want, 64)
		if err != nil {
			continue
		}
		if f == n {
			return true, true
		}
	}
	return false, true
}

func matchBool(v any, set Values) (bool, bool) {
	b, ok := v.(bool)
	if !ok {
		return false, false
	}
	for _, want := range set {
		parsed, err := strconv.ParseBool(want)
		if err != nil {
			continue
		}
		if parsed == b {
			return true, true
		}
	}
	return false, true
}
