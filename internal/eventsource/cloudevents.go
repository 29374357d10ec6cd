package eventsource

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"github.com/climateengine/build-sensor/internal/core"
)

// FromCloudEvent decodes a CloudEvents HTTP delivery (binary or structured
// mode). The envelope source and event name come from the CloudEvent's
// source and type attributes.
func (a *Adapter) FromCloudEvent(r *http.Request) (*core.Envelope, error) {
	headers := flattenHeaders(r.Header)

	ev, err := cehttp.NewEventFromHTTPRequest(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if ct := ev.DataContentType(); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json")) {
			return nil, fmt.Errorf("%w: unsupported data content type %q", ErrMalformedPayload, ct)
		}
	}
	body, err := decodeJSON(ev.Data())
	if err != nil {
		return nil, err
	}

	received := a.now().UTC()
	env := &core.Envelope{
		ID:         ev.ID(),
		Source:     ev.Source(),
		EventName:  ev.Type(),
		ReceivedAt: received,
		Headers:    headers,
		Body:       body,
	}
	if err := env.Seal(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return env, nil
}
