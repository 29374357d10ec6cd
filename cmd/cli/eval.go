package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/sensor"
)

var (
	evalHeaders   []string
	evalSource    string
	evalEventName string
	evalOutput    string
	evalSensors   []string
)

var evalCmd = &cobra.Command{
	Use:   "eval <payload.json>",
	Short: "Dry-runs an event payload against the sensors",
	Long: `Evaluates a JSON payload (with optional headers) against every sensor and
explains, predicate by predicate, which triggers would fire. Nothing is submitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		env, err := envelopeFromFile(args[0], evalHeaders)
		if err != nil {
			return err
		}
		sensors, err := loadSensors(evalSensors)
		if err != nil {
			return err
		}

		explanations := make([]sensor.Explanation, 0, len(sensors))
		for _, s := range sensors {
			explanations = append(explanations, s.Explain(env))
		}

		if evalOutput != formatText {
			return encode(os.Stdout, evalOutput, explanations)
		}
		for _, exp := range explanations {
			printExplanation(os.Stdout, exp)
		}
		return nil
	},
}

func envelopeFromFile(path string, headers []string) (*core.Envelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	env := &core.Envelope{
		ID:         uuid.NewString(),
		Source:     evalSource,
		EventName:  evalEventName,
		ReceivedAt: time.Now().UTC(),
		Headers:    make(map[string]string, len(headers)),
		Body:       body,
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			name, value, ok = strings.Cut(h, "=")
		}
		if !ok {
			return nil, fmt.Errorf("header %q must be Name:Value", h)
		}
		env.Headers[http.CanonicalHeaderKey(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	if err := env.Seal(); err != nil {
		return nil, err
	}
	return env, nil
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	evalCmd.Flags().StringArrayVarP(&evalHeaders, "header", "H", nil, "Request header as Name:Value (repeatable)")
	evalCmd.Flags().StringVar(&evalSource, "source", "github", "Event source name")
	evalCmd.Flags().StringVar(&evalEventName, "event", "climateengine", "Event name within the source")
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", formatText, "Output format: text, json or yaml")
	evalCmd.Flags().StringSliceVarP(&evalSensors, "file", "f", nil, "Sensor manifest files (default: the sensors directory)")
	rootCmd.AddCommand(evalCmd)
}
