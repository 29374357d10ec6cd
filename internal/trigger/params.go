package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/filter"
	"github.com/climateengine/build-sensor/internal/sensor"
)

var (
	// ErrInvalidTemplate is returned when a template blob is not a Workflow.
	ErrInvalidTemplate = errors.New("invalid workflow template")
	// ErrParameter is returned when a trigger parameter cannot be applied.
	ErrParameter = errors.New("trigger parameter")
)

// DecodeWorkflow parses a YAML or JSON template into a Workflow object.
func DecodeWorkflow(raw []byte) (*unstructured.Unstructured, error) {
	js, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(js); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if obj.GetKind() != "Workflow" {
		return nil, fmt.Errorf("%w: kind %q, want Workflow", ErrInvalidTemplate, obj.GetKind())
	}
	return obj, nil
}

// ApplyParameters copies values from env into wf. A parameter whose source
// path is missing falls back to its default value, or fails without one.
func ApplyParameters(wf *unstructured.Unstructured, params []sensor.Parameter, env *core.Envelope) error {
	for _, p := range params {
		value, ok := resolveString(env, p.Src.Path)
		if !ok {
			if p.Src.Value == "" {
				return fmt.Errorf("%w: %s not present in event", ErrParameter, p.Src.Path)
			}
			value = p.Src.Value
		}
		if err := setPath(wf.Object, filter.SplitPath(p.Dest), value); err != nil {
			return fmt.Errorf("%w: dest %s: %v", ErrParameter, p.Dest, err)
		}
	}
	return nil
}

func resolveString(env *core.Envelope, path string) (string, bool) {
	v, ok := filter.Resolve(env, path)
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// setPath assigns value at segments, creating intermediate maps. Sequence
// indices must already exist.
func setPath(root map[string]any, segments []string, value string) error {
	if len(segments) == 0 {
		return errors.New("empty path")
	}

	var cur any = root
	for i, seg := range segments {
		last := i == len(segments)-1
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = value
				return nil
			}
			next, ok := c[seg]
			if !ok || next == nil {
				m := map[string]any{}
				c[seg] = m
				next = m
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return fmt.Errorf("index %q out of range at %s", seg, strings.Join(segments[:i], "."))
			}
			if last {
				c[idx] = value
				return nil
			}
			cur = c[idx]
		default:
			return fmt.Errorf("cannot set field under %s: not an object or list", strings.Join(segments[:i], "."))
		}
	}
	return nil
}
