// Package filter evaluates declarative data predicates against event envelopes.
//
// Evaluation is a pure function of the envelope and the predicate sequence:
// it never mutates its inputs, never panics on unexpected shapes and always
// yields the same answer for the same inputs.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Type is the scalar kind a resolved value is coerced to before comparison.
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeBool   Type = "bool"
)

// Valid reports whether t is a supported predicate type.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBool:
		return true
	default:
		return false
	}
}

// Predicate matches when the value at Path, coerced to Type, is one of Value.
type Predicate struct {
	Path  string `json:"path"`
	Type  Type   `json:"type"`
	Value Values `json:"value"`
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s:%s in %v", p.Path, p.Type, []string(p.Value))
}

// Values is the allowed set of a predicate. Manifests may list numbers or
// booleans unquoted; they are kept in their textual form.
type Values []string

// UnmarshalJSON accepts a list of strings, numbers and booleans.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("predicate value must be a list: %w", err)
	}
	out := make(Values, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var b bool
		if err := json.Unmarshal(item, &b); err == nil {
			out = append(out, strconv.FormatBool(b))
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n.String())
			continue
		}
		return fmt.Errorf("unsupported predicate value %s", string(item))
	}
	*v = out
	return nil
}
