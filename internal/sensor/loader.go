package sensor

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned for manifests that cannot be decoded or
// fail validation.
var ErrInvalidManifest = errors.New("invalid sensor manifest")

//go:embed schema/sensor.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := schemaFS.ReadFile("schema/sensor.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("failed to read sensor schema: %w", err)
			return
		}
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	})
	return schema, schemaErr
}

// Parse decodes every Sensor document in a (possibly multi-document) YAML
// or JSON stream. Documents of other kinds are skipped.
func Parse(r io.Reader) ([]*Sensor, error) {
	dec := yaml.NewDecoder(r)

	var sensors []*Sensor
	for i := 0; ; i++ {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidManifest, i, err)
		}
		if doc == nil {
			continue
		}
		if kind, _ := doc["kind"].(string); kind != Kind {
			continue
		}

		s, err := decodeSensor(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		sensors = append(sensors, s)
	}
	return sensors, nil
}

func decodeSensor(doc map[string]any) (*Sensor, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
	}

	var s Sensor
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile loads all sensors defined in a manifest file.
func LoadFile(path string) ([]*Sensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}
	sensors, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range sensors {
		s.file = path
	}
	return sensors, nil
}

// LoadDir loads every .yaml, .yml and .json manifest in dir, in name order.
// Sensor names must be unique across the directory.
func LoadDir(dir string) ([]*Sensor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manifests directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var all []*Sensor
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !IsManifestFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		sensors, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, s := range sensors {
			if prev, dup := seen[s.Name()]; dup {
				return nil, fmt.Errorf("%w: sensor %q defined in both %s and %s", ErrInvalidManifest, s.Name(), prev, path)
			}
			seen[s.Name()] = path
		}
		all = append(all, sensors...)
	}
	return all, nil
}

// IsManifestFile reports whether name has a manifest extension.
func IsManifestFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// Validate performs the semantic checks the schema cannot express.
func (s *Sensor) Validate() error {
	if s.Metadata.Name == "" {
		return fmt.Errorf("%w: sensor name is required", ErrInvalidManifest)
	}

	deps := make(map[string]struct{}, len(s.Spec.Dependencies))
	for _, d := range s.Spec.Dependencies {
		if d.Name == "" {
			return fmt.Errorf("%w: sensor %q: dependency name is required", ErrInvalidManifest, s.Name())
		}
		if _, dup := deps[d.Name]; dup {
			return fmt.Errorf("%w: sensor %q: duplicate dependency %q", ErrInvalidManifest, s.Name(), d.Name)
		}
		deps[d.Name] = struct{}{}
		for _, p := range d.Predicates() {
			if !p.Type.Valid() {
				return fmt.Errorf("%w: sensor %q: dependency %q: unknown predicate type %q", ErrInvalidManifest, s.Name(), d.Name, p.Type)
			}
			if p.Path == "" {
				return fmt.Errorf("%w: sensor %q: dependency %q: predicate path is required", ErrInvalidManifest, s.Name(), d.Name)
			}
		}
	}

	if len(s.Spec.Triggers) == 0 {
		return fmt.Errorf("%w: sensor %q: at least one trigger is required", ErrInvalidManifest, s.Name())
	}
	triggers := make(map[string]struct{}, len(s.Spec.Triggers))
	for _, t := range s.Spec.Triggers {
		if err := s.validateTrigger(t); err != nil {
			return err
		}
		if _, dup := triggers[t.Name()]; dup {
			return fmt.Errorf("%w: sensor %q: duplicate trigger %q", ErrInvalidManifest, s.Name(), t.Name())
		}
		triggers[t.Name()] = struct{}{}
	}
	return nil
}

func (s *Sensor) validateTrigger(t Trigger) error {
	if t.Name() == "" {
		return fmt.Errorf("%w: sensor %q: trigger name is required", ErrInvalidManifest, s.Name())
	}
	wf := t.Template.ArgoWorkflow
	if wf == nil {
		return fmt.Errorf("%w: sensor %q: trigger %q: argoWorkflow is required", ErrInvalidManifest, s.Name(), t.Name())
	}
	if wf.Operation != OperationSubmit {
		return fmt.Errorf("%w: sensor %q: trigger %q: unsupported operation %q", ErrInvalidManifest, s.Name(), t.Name(), wf.Operation)
	}
	cm := wf.Source.ConfigMap
	if cm == nil || cm.Name == "" || cm.Key == "" {
		return fmt.Errorf("%w: sensor %q: trigger %q: configmap name and key are required", ErrInvalidManifest, s.Name(), t.Name())
	}
	for _, p := range wf.Parameters {
		if p.Src.Path == "" || p.Dest == "" {
			return fmt.Errorf("%w: sensor %q: trigger %q: parameter src.path and dest are required", ErrInvalidManifest, s.Name(), t.Name())
		}
	}
	return nil
}
