package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/climateengine/build-sensor/internal/app"
	"github.com/climateengine/build-sensor/internal/config"
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/db"
	"github.com/climateengine/build-sensor/internal/eventsource"
	"github.com/climateengine/build-sensor/internal/github"
	"github.com/climateengine/build-sensor/internal/jobs"
	"github.com/climateengine/build-sensor/internal/kube"
	"github.com/climateengine/build-sensor/internal/logger"
	"github.com/climateengine/build-sensor/internal/metrics"
	"github.com/climateengine/build-sensor/internal/sensor"
	"github.com/climateengine/build-sensor/internal/server"
	"github.com/climateengine/build-sensor/internal/server/handler"
	"github.com/climateengine/build-sensor/internal/storage"
	"github.com/climateengine/build-sensor/internal/trigger"
	"github.com/climateengine/build-sensor/internal/workflow"
)

// AppSet provides every component of the sensor service.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	handler.NewWebhookHandler,
	provideLogger,
	provideRegistry,
	provideKubeClients,
	provideTemplateStore,
	provideSubmitter,
	provideMetricsRegistry,
	provideMetrics,
	provideRejectionObserver,
	provideHistoryStore,
	provideRecorder,
	provideStatusReporter,
	provideTriggerDispatcher,
	provideSensorJob,
	provideJobDispatcher,
	provideAdapter,
	provideRouter,
)

// HistorySet provides the dispatch history store on its own, for the CLI.
var HistorySet = wire.NewSet(
	config.LoadConfig,
	provideLogger,
	provideRequiredHistoryStore,
)

func provideLogger(cfg *config.Config) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(l)
	return l
}

// provideRegistry loads the manifests once. A broken manifest directory at
// startup is fatal.
func provideRegistry(cfg *config.Config, logger *slog.Logger) (*sensor.Registry, error) {
	registry := sensor.NewRegistry(cfg.Sensors.Dir, logger)
	if err := registry.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load sensors from %s: %w", cfg.Sensors.Dir, err)
	}
	return registry, nil
}

func provideKubeClients(cfg *config.Config, logger *slog.Logger) (*kube.Clients, error) {
	restConfig, err := kube.LoadConfig(cfg.Kube.Kubeconfig, logger)
	if err != nil {
		return nil, err
	}
	return kube.NewClients(restConfig)
}

func provideTemplateStore(clients *kube.Clients) core.TemplateStore {
	return workflow.NewConfigMapStore(clients.Kubernetes)
}

func provideSubmitter(clients *kube.Clients, logger *slog.Logger) core.WorkflowSubmitter {
	return workflow.NewSubmitter(clients.Dynamic, logger)
}

func provideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry, registry *sensor.Registry, logger *slog.Logger) *metrics.PrometheusSink {
	sink := metrics.NewPrometheusSink(reg, logger)
	sink.RegisterSensorsLoaded(reg, registry.Len)
	return sink
}

func provideRejectionObserver(sink *metrics.PrometheusSink) handler.RejectionObserver {
	return sink
}

// provideHistoryStore opens the dispatch history database. It returns a nil
// store when no driver is configured.
func provideHistoryStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Info("dispatch history disabled")
		return nil, func() {}, nil
	}
	conn, cleanup, err := db.NewDatabase(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewStore(conn.DB), cleanup, nil
}

// provideRequiredHistoryStore is provideHistoryStore for callers that cannot
// work without a database.
func provideRequiredHistoryStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, nil, errors.New("dispatch history is disabled: set DB_DRIVER")
	}
	return provideHistoryStore(cfg, logger)
}

func provideRecorder(store storage.Store) core.DispatchRecorder {
	if store == nil {
		return nil
	}
	return store
}

func provideStatusReporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.StatusReporter, error) {
	if !cfg.GitHub.StatusEnabled {
		return nil, nil
	}
	client, err := github.NewClientFromConfig(ctx, cfg.GitHub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client for commit statuses: %w", err)
	}
	return github.NewStatusReporter(client, cfg.GitHub.StatusTargetURL, logger), nil
}

func provideTriggerDispatcher(
	cfg *config.Config,
	templates core.TemplateStore,
	submitter core.WorkflowSubmitter,
	recorder core.DispatchRecorder,
	reporter core.StatusReporter,
	sink *metrics.PrometheusSink,
	logger *slog.Logger,
) *trigger.Dispatcher {
	r := cfg.Dispatch.Retry
	return trigger.NewDispatcher(templates, submitter, logger,
		trigger.WithBackoff(wait.Backoff{
			Steps:    r.Attempts,
			Duration: r.InitialBackoff,
			Factor:   r.Factor,
			Jitter:   r.Jitter,
			Cap:      r.MaxBackoff,
		}),
		trigger.WithNamespace(cfg.Kube.WorkflowNamespace),
		trigger.WithRecorder(recorder),
		trigger.WithStatusReporter(reporter),
		trigger.WithMetrics(sink),
	)
}

func provideSensorJob(cfg *config.Config, registry *sensor.Registry, dispatcher *trigger.Dispatcher, sink *metrics.PrometheusSink, logger *slog.Logger) core.Job {
	return jobs.NewSensorJob(registry, dispatcher, sink, cfg.Dispatch.MaxConcurrentSensors, logger)
}

func provideJobDispatcher(cfg *config.Config, job core.Job, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(job, cfg.Dispatch.MaxWorkers, cfg.Dispatch.QueueSize, logger)
}

func provideAdapter(cfg *config.Config) *eventsource.Adapter {
	return eventsource.NewAdapter(cfg.Events.SourceName, cfg.Events.EventName,
		eventsource.WithSecret(cfg.GitHub.WebhookSecret),
		eventsource.WithMaxPayloadBytes(cfg.Events.MaxPayloadBytes),
	)
}

func provideRouter(webhooks *handler.WebhookHandler, registry *sensor.Registry, reg *prometheus.Registry) http.Handler {
	return server.NewRouter(webhooks, func() bool { return registry.Len() > 0 }, reg)
}
