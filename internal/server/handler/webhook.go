// Package handler provides the HTTP handlers that accept event deliveries.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/eventsource"
	"github.com/climateengine/build-sensor/internal/jobs"
)

// Rejection reasons reported to RejectionObserver.
const (
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonQueueFull = "queue_full"
	ReasonStopped   = "stopped"

	// ReasonUnavailable covers any other dispatch failure.
	ReasonUnavailable = "unavailable"
)

// RejectionObserver counts deliveries that were not queued.
type RejectionObserver interface {
	EventRejected(reason string)
}

type decodeFunc func(r *http.Request) (*core.Envelope, error)

// WebhookHandler turns deliveries into envelopes and queues them for the
// sensor workers.
type WebhookHandler struct {
	adapter    *eventsource.Adapter
	dispatcher core.JobDispatcher
	rejections RejectionObserver
	logger     *slog.Logger
}

// NewWebhookHandler creates a handler. rejections may be nil.
func NewWebhookHandler(adapter *eventsource.Adapter, dispatcher core.JobDispatcher, rejections RejectionObserver, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		adapter:    adapter,
		dispatcher: dispatcher,
		rejections: rejections,
		logger:     logger,
	}
}

// HandleGitHub accepts a GitHub webhook delivery.
func (h *WebhookHandler) HandleGitHub(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.adapter.FromRequest)
}

// HandleCloudEvent accepts a CloudEvents HTTP delivery.
func (h *WebhookHandler) HandleCloudEvent(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.adapter.FromCloudEvent)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, decode decodeFunc) {
	env, err := decode(r)
	if err != nil {
		switch {
		case errors.Is(err, eventsource.ErrInvalidSignature):
			h.logger.Warn("rejected webhook with invalid signature", "remote", r.RemoteAddr, "error", err)
			h.reject(ReasonSignature)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
		default:
			h.logger.Warn("discarded malformed delivery", "remote", r.RemoteAddr, "error", err)
			h.reject(ReasonMalformed)
			http.Error(w, "Malformed payload", http.StatusBadRequest)
		}
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), env); err != nil {
		h.logger.Error("failed to queue event", "event_id", env.ID, "error", err)
		h.reject(dispatchRejection(err))
		w.Header().Set("Retry-After", "5")
		http.Error(w, "Event queue unavailable", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("event accepted",
		"event_id", env.ID,
		"source", env.Source,
		"event", env.Header("X-Github-Event"),
		"repo", env.Repository(),
	)
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprintf(w, "Event %s accepted", env.ID)
}

func dispatchRejection(err error) string {
	switch {
	case errors.Is(err, jobs.ErrQueueFull):
		return ReasonQueueFull
	case errors.Is(err, jobs.ErrStopped):
		return ReasonStopped
	default:
		return ReasonUnavailable
	}
}

func (h *WebhookHandler) reject(reason string) {
	if h.rejections != nil {
		h.rejections.EventRejected(reason)
	}
}
