// Package eventsource turns inbound webhook deliveries into event envelopes.
package eventsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"github.com/google/uuid"

	"github.com/climateengine/build-sensor/internal/core"
)

// DefaultMaxPayloadBytes matches the largest payload GitHub delivers.
const DefaultMaxPayloadBytes = 25 << 20

var (
	// ErrMalformedPayload is returned when a delivery body cannot be decoded
	// into structured data.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidSignature is returned when a webhook secret is configured and
	// the delivery signature does not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Adapter normalises HTTP webhook deliveries from one event source.
type Adapter struct {
	source    string
	eventName string
	secret    []byte
	maxBytes  int64
	now       func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSecret enables GitHub HMAC signature validation.
func WithSecret(secret string) Option {
	return func(a *Adapter) {
		if secret != "" {
			a.secret = []byte(secret)
		}
	}
}

// WithMaxPayloadBytes limits how much of a body is read.
func WithMaxPayloadBytes(n int64) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxBytes = n
		}
	}
}

// NewAdapter creates an adapter that stamps envelopes with the given event
// source and event name.
func NewAdapter(source, eventName string, opts ...Option) *Adapter {
	a := &Adapter{
		source:    source,
		eventName: eventName,
		maxBytes:  DefaultMaxPayloadBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromRequest reads and decodes a webhook delivery. It fails with
// ErrInvalidSignature or ErrMalformedPayload and has no other side effects.
func (a *Adapter) FromRequest(r *http.Request) (*core.Envelope, error) {
	raw, err := readBody(r.Body, a.maxBytes)
	if err != nil {
		return nil, err
	}

	if a.secret != nil {
		if err := a.verify(r, raw); err != nil {
			return nil, err
		}
	}

	payload, err := extractPayload(r.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, err
	}
	body, err := decodeJSON(payload)
	if err != nil {
		return nil, err
	}

	id := github.DeliveryID(r)
	if id == "" {
		id = uuid.NewString()
	}

	env := &core.Envelope{
		ID:         id,
		Source:     a.source,
		EventName:  a.eventName,
		ReceivedAt: a.now().UTC(),
		Headers:    flattenHeaders(r.Header),
		Body:       body,
	}
	if err := env.Seal(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return env, nil
}

func (a *Adapter) verify(r *http.Request, raw []byte) error {
	signature := r.Header.Get(github.SHA256SignatureHeader)
	if signature == "" {
		signature = r.Header.Get(github.SHA1SignatureHeader)
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	if err := github.ValidateSignature(signature, raw, a.secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func readBody(body io.Reader, limit int64) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrMalformedPayload, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedPayload, limit)
	}
	return raw, nil
}

// extractPayload returns the JSON document carried by the body. GitHub can
// deliver either raw JSON or a form with the JSON in the "payload" field.
func extractPayload(contentType string, raw []byte) ([]byte, error) {
	if contentType == "" {
		return raw, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q: %v", ErrMalformedPayload, contentType, err)
	}

	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return raw, nil
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: form body: %v", ErrMalformedPayload, err)
		}
		payload := form.Get("payload")
		if payload == "" {
			return nil, fmt.Errorf("%w: form body has no payload field", ErrMalformedPayload)
		}
		return []byte(payload), nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrMalformedPayload, mediaType)
	}
}

func decodeJSON(payload []byte) (any, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return body, nil
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
