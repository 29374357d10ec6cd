package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/climateengine/build-sensor/internal/sensor"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func mark(ok bool) string {
	if ok {
		return successColor.Sprint("✔")
	}
	return errorColor.Sprint("✘")
}

func printExplanation(w io.Writer, exp sensor.Explanation) {
	verdict := errorColor.Sprint("no match")
	if exp.Matched {
		verdict = successColor.Sprint("match")
	}
	titleColor.Fprintf(w, "%s", exp.Sensor)
	fmt.Fprintf(w, "  %s\n", verdict)

	for _, d := range exp.Dependencies {
		fmt.Fprintf(w, "  %s dependency %s\n", mark(d.Matched), d.Name)
		if d.SourceMismatch {
			dimColor.Fprintln(w, "      event source or event name differs")
			continue
		}
		for _, p := range d.Predicates {
			fmt.Fprintf(w, "      %s %s (%s) in %v", mark(p.Matched), p.Path, p.Type, p.Values)
			if !p.Matched {
				dimColor.Fprintf(w, "  %s, got %v", p.Reason, p.Resolved)
			}
			fmt.Fprintln(w)
		}
	}
	for _, t := range exp.Triggers {
		fmt.Fprintf(w, "  → would fire trigger %s\n", t)
	}
}
