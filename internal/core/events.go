// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing the event source, filter and dispatch layers to be wired and tested
// independently of the HTTP and Kubernetes implementations behind them.
package core

import (
	"encoding/json"
	"time"
)

// Envelope is the normalized, read-only view of a single inbound event.
// It is produced once per webhook call by the event source adapter and
// must not be mutated afterwards; filters and triggers only read from it.
type Envelope struct {
	// ID identifies the delivery. GitHub's X-GitHub-Delivery header is used
	// when present, otherwise a random UUID.
	ID string
	// Source is the event source name the delivery arrived on (e.g. "github").
	Source string
	// EventName is the named event within the source (e.g. "climateengine").
	EventName string
	// ReceivedAt is the time the delivery was accepted.
	ReceivedAt time.Time

	// Headers holds the request headers as delivered, one value per key.
	Headers map[string]string
	// Body is the decoded JSON value tree: map[string]any, []any, string,
	// float64, bool or nil.
	Body any

	// Document caches the JSON view predicates resolve against. It is
	// set by Seal.
	Document []byte
}

type envelopeDocument struct {
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body"`
}

// JSON returns the envelope as {"headers": ..., "body": ...}. A sealed
// envelope returns its cached document.
func (e *Envelope) JSON() ([]byte, error) {
	if e.Document != nil {
		return e.Document, nil
	}
	return json.Marshal(envelopeDocument{Headers: e.Headers, Body: e.Body})
}

// Seal caches the JSON document so every sensor evaluating the envelope
// shares it. The envelope must not be modified afterwards.
func (e *Envelope) Seal() error {
	doc, err := e.JSON()
	if err != nil {
		return err
	}
	e.Document = doc
	return nil
}

// Header returns the value of the named header using an exact key match.
func (e *Envelope) Header(name string) string {
	if e == nil || e.Headers == nil {
		return ""
	}
	return e.Headers[name]
}

// Repository returns the "owner/name" of the repository the event refers
// to, when the body carries one.
func (e *Envelope) Repository() string {
	repo, ok := e.field("repository")
	if !ok {
		return ""
	}
	m, ok := repo.(map[string]any)
	if !ok {
		return ""
	}
	name, _ := m["full_name"].(string)
	return name
}

// HeadSHA returns the commit the event points at: "after" for push events,
// "pull_request.head.sha" for pull request events.
func (e *Envelope) HeadSHA() string {
	if after, ok := e.field("after"); ok {
		if sha, ok := after.(string); ok && sha != "" {
			return sha
		}
	}
	pr, ok := e.field("pull_request")
	if !ok {
		return ""
	}
	prMap, ok := pr.(map[string]any)
	if !ok {
		return ""
	}
	head, ok := prMap["head"].(map[string]any)
	if !ok {
		return ""
	}
	sha, _ := head["sha"].(string)
	return sha
}

func (e *Envelope) field(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	body, ok := e.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := body[key]
	return v, ok
}
