package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/eventsource"
	"github.com/climateengine/build-sensor/internal/jobs"
)

const (
	secret      = "s3cr3t"
	pushPayload = `{"ref":"refs/heads/main","after":"0123abcd","repository":{"full_name":"ClimateEngine/py-spfi-api"}}`
)

type fakeDispatcher struct {
	mu     sync.Mutex
	queued []*core.Envelope
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, env *core.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.queued = append(d.queued, env)
	return nil
}

func (d *fakeDispatcher) Stop() {}

type rejectCounter map[string]int

func (c rejectCounter) EventRejected(reason string) { c[reason]++ }

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func githubRequest(body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	return req
}

func newHandler(d core.JobDispatcher, rejections RejectionObserver) *WebhookHandler {
	adapter := eventsource.NewAdapter("github", "build", eventsource.WithSecret(secret))
	return NewWebhookHandler(adapter, d, rejections, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWebhookHandler_GitHub(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		signature   string
		dispatchErr error
		wantStatus  int
		wantQueued  int
		wantReject  string
	}{
		{name: "valid push is accepted", body: pushPayload, signature: sign(pushPayload), wantStatus: http.StatusAccepted, wantQueued: 1},
		{name: "malformed json", body: `{"ref":`, signature: sign(`{"ref":`), wantStatus: http.StatusBadRequest, wantReject: ReasonMalformed},
		{name: "bad signature", body: pushPayload, signature: sign("other body"), wantStatus: http.StatusUnauthorized, wantReject: ReasonSignature},
		{name: "missing signature", body: pushPayload, wantStatus: http.StatusUnauthorized, wantReject: ReasonSignature},
		{
			name: "full queue", body: pushPayload, signature: sign(pushPayload),
			dispatchErr: jobs.ErrQueueFull,
			wantStatus:  http.StatusServiceUnavailable, wantReject: ReasonQueueFull,
		},
		{
			name: "dispatcher stopped", body: pushPayload, signature: sign(pushPayload),
			dispatchErr: fmt.Errorf("dispatch: %w", jobs.ErrStopped),
			wantStatus:  http.StatusServiceUnavailable, wantReject: ReasonStopped,
		},
		{
			name: "other dispatch failure", body: pushPayload, signature: sign(pushPayload),
			dispatchErr: errors.New("boom"),
			wantStatus:  http.StatusServiceUnavailable, wantReject: ReasonUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{err: tt.dispatchErr}
			rejections := rejectCounter{}
			h := newHandler(d, rejections)

			rec := httptest.NewRecorder()
			h.HandleGitHub(rec, githubRequest(tt.body, tt.signature))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, d.queued, tt.wantQueued)
			if tt.wantReject != "" {
				assert.Equal(t, 1, rejections[tt.wantReject])
			} else {
				assert.Empty(t, rejections)
			}
		})
	}
}

func TestWebhookHandler_AcceptedEnvelope(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d, nil)

	rec := httptest.NewRecorder()
	h.HandleGitHub(rec, githubRequest(pushPayload, sign(pushPayload)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, d.queued, 1)

	env := d.queued[0]
	assert.Equal(t, "delivery-1", env.ID)
	assert.Equal(t, "github", env.Source)
	assert.Equal(t, "build", env.EventName)
	assert.Equal(t, "push", env.Header("X-Github-Event"))
	assert.Contains(t, rec.Body.String(), "delivery-1")
}

func TestWebhookHandler_FullQueueSetsRetryAfter(t *testing.T) {
	h := newHandler(&fakeDispatcher{err: errors.New("full")}, nil)

	rec := httptest.NewRecorder()
	h.HandleGitHub(rec, githubRequest(pushPayload, sign(pushPayload)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestWebhookHandler_CloudEvent(t *testing.T) {
	d := &fakeDispatcher{}
	h := newHandler(d, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cloudevents", strings.NewReader(pushPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ce-Specversion", "1.0")
	req.Header.Set("Ce-Id", "ce-1")
	req.Header.Set("Ce-Source", "github")
	req.Header.Set("Ce-Type", "build")

	rec := httptest.NewRecorder()
	h.HandleCloudEvent(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, d.queued, 1)
	assert.Equal(t, "ce-1", d.queued[0].ID)
	assert.Equal(t, "ClimateEngine/py-spfi-api", d.queued[0].Repository())

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/cloudevents", strings.NewReader("{}"))
	bad.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.HandleCloudEvent(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
