package sensor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/internal/filter"
)

func pushEnvelope(source, ref string) *core.Envelope {
	return &core.Envelope{
		ID:        "delivery-1",
		Source:    source,
		EventName: "climateengine",
		Headers:   map[string]string{"X-Github-Event": "push"},
		Body: map[string]any{
			"ref":        ref,
			"after":      "abc123",
			"repository": map[string]any{"full_name": "climateengine/py-spfi-api"},
		},
	}
}

func TestExplain(t *testing.T) {
	sensors, err := Parse(strings.NewReader(buildSensorManifest))
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	s := sensors[0]

	t.Run("matching event lists triggers", func(t *testing.T) {
		exp := s.Explain(pushEnvelope("github", "refs/heads/main"))
		assert.True(t, exp.Matched)
		assert.Equal(t, "py-spfi-api-build", exp.Sensor)
		assert.Equal(t, []string{"build-and-push"}, exp.Triggers)
		require.Len(t, exp.Dependencies, 1)
		assert.Len(t, exp.Dependencies[0].Predicates, 3)
	})

	t.Run("non-matching ref reports every predicate", func(t *testing.T) {
		exp := s.Explain(pushEnvelope("github", "refs/heads/feature"))
		assert.False(t, exp.Matched)
		assert.Empty(t, exp.Triggers)
		preds := exp.Dependencies[0].Predicates
		require.Len(t, preds, 3)
		assert.True(t, preds[0].Matched)
		assert.True(t, preds[1].Matched)
		assert.False(t, preds[2].Matched)
		assert.Equal(t, filter.ReasonNotInSet, preds[2].Reason)
		assert.Equal(t, "refs/heads/feature", preds[2].Resolved)
	})

	t.Run("other event source", func(t *testing.T) {
		exp := s.Explain(pushEnvelope("gitlab", "refs/heads/main"))
		assert.False(t, exp.Matched)
		assert.True(t, exp.Dependencies[0].SourceMismatch)
		assert.Empty(t, exp.Dependencies[0].Predicates)
	})
}
