package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/climateengine/build-sensor/internal/logger"
)

// Supported DB_DRIVER values. An empty driver disables dispatch history.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig
	Logging  logger.Config
	GitHub   GitHubConfig
	Events   EventsConfig
	Sensors  SensorsConfig
	Kube     KubeConfig
	Dispatch DispatchConfig
	Database DBConfig
}

type ServerConfig struct {
	Port string
}

// GitHubConfig covers webhook verification and the commit status reporter.
type GitHubConfig struct {
	WebhookSecret  string
	Token          string
	AppID          int64
	PrivateKeyPath string
	InstallationID int64
	StatusEnabled  bool
	// StatusTargetURL is linked from commit statuses; {namespace} and
	// {workflow} are substituted.
	StatusTargetURL string
}

// UsesApp reports whether GitHub App installation credentials are complete.
func (c GitHubConfig) UsesApp() bool {
	return c.AppID != 0 && c.PrivateKeyPath != "" && c.InstallationID != 0
}

// EventsConfig names the event source envelopes from the GitHub webhook get.
type EventsConfig struct {
	SourceName      string
	EventName       string
	MaxPayloadBytes int64
}

type SensorsConfig struct {
	Dir   string
	Watch bool
}

type KubeConfig struct {
	Kubeconfig        string
	WorkflowNamespace string
}

// DispatchConfig sizes the worker pool and the submission retry policy.
type DispatchConfig struct {
	MaxWorkers           int
	QueueSize            int
	MaxConcurrentSensors int
	Retry                RetryConfig
}

type RetryConfig struct {
	Attempts       int
	InitialBackoff time.Duration
	Factor         float64
	Jitter         float64
	MaxBackoff     time.Duration
}

// DBConfig selects the dispatch history backend.
type DBConfig struct {
	Driver          string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	Path            string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Enabled reports whether dispatch history is persisted.
func (c DBConfig) Enabled() bool {
	return c.Driver != ""
}

// DSN returns the driver specific connection string.
func (c DBConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE", "build-sensor.log")
	v.SetDefault("GITHUB_STATUS_ENABLED", false)
	v.SetDefault("EVENT_SOURCE_NAME", "github")
	v.SetDefault("EVENT_NAME", "climateengine")
	v.SetDefault("MAX_PAYLOAD_BYTES", 25<<20)
	v.SetDefault("SENSORS_DIR", "sensors")
	v.SetDefault("SENSORS_WATCH", true)
	v.SetDefault("MAX_WORKERS", 5)
	v.SetDefault("QUEUE_SIZE", 100)
	v.SetDefault("MAX_CONCURRENT_SENSORS", 0)
	v.SetDefault("SUBMIT_ATTEMPTS", 4)
	v.SetDefault("SUBMIT_INITIAL_BACKOFF", "500ms")
	v.SetDefault("SUBMIT_BACKOFF_FACTOR", 2.0)
	v.SetDefault("SUBMIT_BACKOFF_JITTER", 0.1)
	v.SetDefault("SUBMIT_MAX_BACKOFF", "8s")
	v.SetDefault("DB_DRIVER", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "build_sensor")
	v.SetDefault("DB_NAME", "build_sensor")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "build-sensor.db")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
}

// LoadConfig reads configuration from environment variables and an
// optional .env file, applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read config file", "error", err)
		}
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: v.GetString("SERVER_PORT")},
		Logging: logger.Config{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
			Output: strings.ToLower(v.GetString("LOG_OUTPUT")),
			File:   v.GetString("LOG_FILE"),
		},
		GitHub: GitHubConfig{
			WebhookSecret:   v.GetString("GITHUB_WEBHOOK_SECRET"),
			Token:           v.GetString("GITHUB_TOKEN"),
			AppID:           v.GetInt64("GITHUB_APP_ID"),
			PrivateKeyPath:  v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			InstallationID:  v.GetInt64("GITHUB_INSTALLATION_ID"),
			StatusEnabled:   v.GetBool("GITHUB_STATUS_ENABLED"),
			StatusTargetURL: v.GetString("GITHUB_STATUS_TARGET_URL"),
		},
		Events: EventsConfig{
			SourceName:      v.GetString("EVENT_SOURCE_NAME"),
			EventName:       v.GetString("EVENT_NAME"),
			MaxPayloadBytes: v.GetInt64("MAX_PAYLOAD_BYTES"),
		},
		Sensors: SensorsConfig{
			Dir:   v.GetString("SENSORS_DIR"),
			Watch: v.GetBool("SENSORS_WATCH"),
		},
		Kube: KubeConfig{
			Kubeconfig:        v.GetString("KUBECONFIG"),
			WorkflowNamespace: v.GetString("WORKFLOW_NAMESPACE"),
		},
		Dispatch: DispatchConfig{
			MaxWorkers:           v.GetInt("MAX_WORKERS"),
			QueueSize:            v.GetInt("QUEUE_SIZE"),
			MaxConcurrentSensors: v.GetInt("MAX_CONCURRENT_SENSORS"),
			Retry: RetryConfig{
				Attempts:       v.GetInt("SUBMIT_ATTEMPTS"),
				InitialBackoff: v.GetDuration("SUBMIT_INITIAL_BACKOFF"),
				Factor:         v.GetFloat64("SUBMIT_BACKOFF_FACTOR"),
				Jitter:         v.GetFloat64("SUBMIT_BACKOFF_JITTER"),
				MaxBackoff:     v.GetDuration("SUBMIT_MAX_BACKOFF"),
			},
		},
		Database: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			Path:            v.GetString("DB_PATH"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be a valid port, got %q", c.Server.Port))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Events.SourceName == "" {
		errs = append(errs, errors.New("EVENT_SOURCE_NAME must be set"))
	}
	if c.Sensors.Dir == "" {
		errs = append(errs, errors.New("SENSORS_DIR must be set"))
	}
	if c.Dispatch.MaxWorkers < 1 {
		errs = append(errs, errors.New("MAX_WORKERS must be at least 1"))
	}
	if c.Dispatch.QueueSize < 1 {
		errs = append(errs, errors.New("QUEUE_SIZE must be at least 1"))
	}

	r := c.Dispatch.Retry
	if r.Attempts < 1 {
		errs = append(errs, errors.New("SUBMIT_ATTEMPTS must be at least 1"))
	}
	if r.InitialBackoff < 0 || r.MaxBackoff < 0 {
		errs = append(errs, errors.New("submit backoff durations must not be negative"))
	}
	if r.Factor < 1 {
		errs = append(errs, errors.New("SUBMIT_BACKOFF_FACTOR must be at least 1"))
	}
	if r.Jitter < 0 {
		errs = append(errs, errors.New("SUBMIT_BACKOFF_JITTER must not be negative"))
	}

	if c.GitHub.StatusEnabled && c.GitHub.Token == "" && !c.GitHub.UsesApp() {
		errs = append(errs, errors.New("GITHUB_STATUS_ENABLED needs GITHUB_TOKEN or GITHUB_APP_ID, GITHUB_PRIVATE_KEY_PATH and GITHUB_INSTALLATION_ID"))
	}

	switch c.Database.Driver {
	case "":
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("DB_PATH must be set for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME must be set for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}
