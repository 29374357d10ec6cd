package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateengine/build-sensor/internal/config"
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/db"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	cfg := &config.DBConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "history.db")}
	conn, closeDB, err := db.NewDatabase(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(closeDB)
	return NewStore(conn.DB)
}

func outcome(sensor, trigger, eventID string, started time.Time, err error) core.TriggerOutcome {
	o := core.TriggerOutcome{
		Sensor:     sensor,
		Trigger:    trigger,
		EventID:    eventID,
		Repository: "ClimateEngine/py-spfi-api",
		HeadSHA:    "0123abcd",
		Template:   core.TemplateRef{Namespace: "argo-events", Name: sensor, Key: "workflow"},
		Attempts:   1,
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
		Err:        err,
	}
	if err == nil {
		o.WorkflowName = sensor + "-abcde"
	}
	return o
}

func TestStore_RecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordOutcome(ctx, outcome("api", "build", "e1", base, nil)))
	require.NoError(t, store.RecordOutcome(ctx, outcome("api", "notify", "e1", base.Add(time.Second), core.ErrTemplateNotFound)))
	require.NoError(t, store.RecordOutcome(ctx, outcome("docs", "build", "e2", base.Add(2*time.Second), nil)))

	all, err := store.ListOutcomes(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "docs", all[0].Sensor, "newest first")

	api, err := store.ListOutcomes(ctx, ListFilter{Sensor: "api"})
	require.NoError(t, err)
	require.Len(t, api, 2)
	assert.Equal(t, "notify", api[0].Trigger)
	assert.Equal(t, StatusFailed, api[0].Status)
	assert.Equal(t, core.ErrTemplateNotFound.Error(), api[0].Error)
	assert.Empty(t, api[0].WorkflowName)

	build := api[1]
	assert.Equal(t, StatusSubmitted, build.Status)
	assert.Equal(t, "api-abcde", build.WorkflowName)
	assert.Equal(t, "argo-events", build.TemplateNamespace)
	assert.Equal(t, "0123abcd", build.HeadSHA)
	assert.Equal(t, 1500*time.Millisecond, build.Duration())
	assert.True(t, base.Equal(build.StartedAt), "started_at %v", build.StartedAt)

	failed, err := store.ListOutcomes(ctx, ListFilter{Status: StatusFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	byEvent, err := store.ListOutcomes(ctx, ListFilter{EventID: "e2", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byEvent, 1)

	limited, err := store.ListOutcomes(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_RecordRequiresNames(t *testing.T) {
	store := newTestStore(t)
	err := store.RecordOutcome(context.Background(), core.TriggerOutcome{Trigger: "build"})
	assert.Error(t, err)
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(outcome("api", "build", "e1", time.Time{}, errors.New("boom")))
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "boom", rec.Error)
	assert.False(t, rec.StartedAt.IsZero())
	assert.Equal(t, int64(1500), rec.DurationMS)
}

func TestDatabase_MigrationsAreIdempotent(t *testing.T) {
	cfg := &config.DBConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "history.db")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, closeFirst, err := db.NewDatabase(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, first.RunMigrations())
	closeFirst()

	second, closeSecond, err := db.NewDatabase(cfg, logger)
	require.NoError(t, err)
	defer closeSecond()
	assert.Equal(t, config.DriverSQLite, second.Driver())
}
