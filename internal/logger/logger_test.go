package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		log       func(l *slog.Logger)
		checkFunc func(t *testing.T, output string)
	}{
		{
			name:   "text logger at info",
			config: Config{Level: "info", Format: "text"},
			log:    func(l *slog.Logger) { l.Info("event queued", "event_id", "abc") },
			checkFunc: func(t *testing.T, output string) {
				assert.Contains(t, output, "level=INFO")
				assert.Contains(t, output, `msg="event queued"`)
				assert.Contains(t, output, "event_id=abc")
			},
		},
		{
			name:   "json logger at debug",
			config: Config{Level: "debug", Format: "json"},
			log:    func(l *slog.Logger) { l.Debug("sensor matched", "sensor", "api") },
			checkFunc: func(t *testing.T, output string) {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(output), &entry))
				assert.Equal(t, "DEBUG", entry["level"])
				assert.Equal(t, "sensor matched", entry["msg"])
				assert.Equal(t, "api", entry["sensor"])
			},
		},
		{
			name:   "debug suppressed at warn",
			config: Config{Level: "WARN", Format: "text"},
			log:    func(l *slog.Logger) { l.Debug("hidden"); l.Info("hidden") },
			checkFunc: func(t *testing.T, output string) {
				assert.Empty(t, output)
			},
		},
		{
			name:   "unknown level falls back to info",
			config: Config{Level: "verbose"},
			log:    func(l *slog.Logger) { l.Debug("hidden"); l.Info("shown") },
			checkFunc: func(t *testing.T, output string) {
				assert.NotContains(t, output, "hidden")
				assert.Contains(t, output, "shown")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(tt.config, &buf))
			tt.checkFunc(t, buf.String())
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.log")
	l := NewLogger(Config{Level: "info", Output: "file", File: path}, nil)
	l.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
