package sensor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateengine/build-sensor/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "build.yaml", buildSensorManifest)

	r := NewRegistry(dir, discardLogger())
	assert.Equal(t, 0, r.Len())
	require.NoError(t, r.Reload())
	require.Equal(t, 1, r.Len())

	writeManifest(t, dir, "build.yaml", strings.Replace(buildSensorManifest, "operation: submit", "operation: patch", 1))
	assert.ErrorIs(t, r.Reload(), ErrInvalidManifest)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, path, r.Sensors()[0].File())
}

func TestRegistry_SnapshotIsIsolated(t *testing.T) {
	s := &Sensor{Metadata: Metadata{Name: "a"}}
	r := NewRegistry(t.TempDir(), discardLogger())
	r.Set([]*Sensor{s})

	snapshot := r.Sensors()
	r.Set(nil)

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir, discardLogger())
	require.NoError(t, r.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeManifest(t, dir, "build.yaml", buildSensorManifest)

	assert.Eventually(t, func() bool { return r.Len() == 1 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

// swapConfigMapVolume lays out dir the way the kubelet projects a ConfigMap:
// the payload lives in a timestamped directory, "..data" points at it and
// each key is a symlink through "..data".
func swapConfigMapVolume(t *testing.T, dir, version, manifest string) {
	t.Helper()
	payload := filepath.Join(dir, version)
	require.NoError(t, os.Mkdir(payload, 0o755))
	writeManifest(t, payload, "build.yaml", manifest)

	tmp := filepath.Join(dir, "..data_tmp")
	require.NoError(t, os.Symlink(version, tmp))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "..data")))
}

func namedManifest(name string) string {
	return strings.Replace(buildSensorManifest, "name: py-spfi-api-build\n", "name: "+name+"\n", 1)
}

func TestRegistry_WatchFollowsConfigMapSwap(t *testing.T) {
	dir := t.TempDir()
	swapConfigMapVolume(t, dir, "..v1", namedManifest("first"))
	require.NoError(t, os.Symlink(filepath.Join("..data", "build.yaml"), filepath.Join(dir, "build.yaml")))

	r := NewRegistry(dir, discardLogger())
	require.NoError(t, r.Reload())
	require.Equal(t, 1, r.Len())
	require.Equal(t, "first", r.Sensors()[0].Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	swapConfigMapVolume(t, dir, "..v2", namedManifest("second"))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "..v1")))

	assert.Eventually(t, func() bool {
		sensors := r.Sensors()
		return len(sensors) == 1 && sensors[0].Name() == "second"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIsWatchedName(t *testing.T) {
	assert.True(t, isWatchedName("build.yaml"))
	assert.True(t, isWatchedName("..data"))
	assert.True(t, isWatchedName("..2026_10_17_09_00_00.123456789"))
	assert.False(t, isWatchedName(".build.yaml.swp"))
	assert.False(t, isWatchedName("README.md"))
}

func TestSensor_ExplainSourceBinding(t *testing.T) {
	sensors, err := Parse(strings.NewReader(buildSensorManifest))
	require.NoError(t, err)
	s := sensors[0]

	env := func(source, ref string) *core.Envelope {
		return &core.Envelope{
			Source:    source,
			EventName: "climateengine",
			Headers:   map[string]string{"X-Github-Event": "push"},
			Body: map[string]any{
				"ref":        ref,
				"repository": map[string]any{"full_name": "climateengine/py-spfi-api"},
			},
		}
	}

	assert.True(t, s.Explain(env("github", "refs/heads/main")).Matched)
	assert.False(t, s.Explain(env("github", "refs/heads/feature-x")).Matched)
	assert.False(t, s.Explain(env("gitlab", "refs/heads/main")).Matched, "dependency is bound to the github event source")
	assert.False(t, s.Explain(nil).Matched)

	res := s.Spec.Dependencies[0].Evaluate(env("gitlab", "refs/heads/main"))
	assert.False(t, res.Matched)
	assert.Empty(t, res.Outcomes)

	noDeps := &Sensor{Metadata: Metadata{Name: "always"}}
	assert.True(t, noDeps.Explain(env("any", "refs/heads/x")).Matched)
}
