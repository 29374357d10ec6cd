package github

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/climateengine/build-sensor/internal/config"
	"github.com/climateengine/build-sensor/internal/core"
	"github.com/climateengine/build-sensor/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusReporter_Report(t *testing.T) {
	base := core.TriggerOutcome{
		Sensor:     "py-spfi-api-build",
		Trigger:    "build-and-push",
		Repository: "ClimateEngine/py-spfi-api",
		HeadSHA:    "0123abcd",
		Template:   core.TemplateRef{Namespace: "argo-events"},
	}

	tests := []struct {
		name      string
		outcome   func() core.TriggerOutcome
		targetURL string
		check     func(t *testing.T, status *github.RepoStatus)
	}{
		{
			name: "submitted workflow is pending",
			outcome: func() core.TriggerOutcome {
				o := base
				o.WorkflowName = "py-spfi-api-build-x7k2p"
				return o
			},
			targetURL: "https://argo.example.com/workflows/{namespace}/{workflow}",
			check: func(t *testing.T, status *github.RepoStatus) {
				assert.Equal(t, StatePending, status.GetState())
				assert.Equal(t, "build-sensor/py-spfi-api-build/build-and-push", status.GetContext())
				assert.Contains(t, status.GetDescription(), "py-spfi-api-build-x7k2p")
				assert.Equal(t, "https://argo.example.com/workflows/argo-events/py-spfi-api-build-x7k2p", status.GetTargetURL())
			},
		},
		{
			name: "failed trigger is an error",
			outcome: func() core.TriggerOutcome {
				o := base
				o.Err = core.ErrTemplateNotFound
				return o
			},
			check: func(t *testing.T, status *github.RepoStatus) {
				assert.Equal(t, StateError, status.GetState())
				assert.Contains(t, status.GetDescription(), core.ErrTemplateNotFound.Error())
				assert.Nil(t, status.TargetURL)
			},
		},
		{
			name: "long errors are truncated",
			outcome: func() core.TriggerOutcome {
				o := base
				o.Err = errors.New(strings.Repeat("x", 500))
				return o
			},
			check: func(t *testing.T, status *github.RepoStatus) {
				assert.Len(t, status.GetDescription(), maxDescriptionLen)
				assert.True(t, strings.HasSuffix(status.GetDescription(), "..."))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)

			var got *github.RepoStatus
			client.EXPECT().
				CreateStatus(gomock.Any(), "ClimateEngine", "py-spfi-api", "0123abcd", gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _, _ string, s *github.RepoStatus) (*github.RepoStatus, error) {
					got = s
					return s, nil
				})

			r := NewStatusReporter(client, tt.targetURL, discardLogger())
			require.NoError(t, r.Report(context.Background(), &core.Envelope{}, tt.outcome()))
			require.NotNil(t, got)
			tt.check(t, got)
		})
	}
}

func TestStatusReporter_FallsBackToEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CreateStatus(gomock.Any(), "ClimateEngine", "py-spfi-api", "feedbeef", gomock.Any()).Return(nil, nil)

	env := &core.Envelope{Body: map[string]any{
		"after":      "feedbeef",
		"repository": map[string]any{"full_name": "ClimateEngine/py-spfi-api"},
	}}
	r := NewStatusReporter(client, "", discardLogger())
	require.NoError(t, r.Report(context.Background(), env, core.TriggerOutcome{Sensor: "s", Trigger: "t", WorkflowName: "wf"}))
}

func TestStatusReporter_SkipsWithoutRevision(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	r := NewStatusReporter(client, "", discardLogger())
	err := r.Report(context.Background(), &core.Envelope{}, core.TriggerOutcome{Sensor: "s", Trigger: "t", Repository: "no-slash", HeadSHA: "abc"})
	assert.NoError(t, err)
}

func TestStatusReporter_PropagatesClientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CreateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rate limited"))

	r := NewStatusReporter(client, "", discardLogger())
	err := r.Report(context.Background(), &core.Envelope{}, core.TriggerOutcome{
		Sensor: "s", Trigger: "t", Repository: "o/r", HeadSHA: "abc", WorkflowName: "wf",
	})
	assert.EqualError(t, err, "rate limited")
}

func TestNewClientFromConfig(t *testing.T) {
	_, err := NewClientFromConfig(context.Background(), configWith("", 0), discardLogger())
	assert.Error(t, err)

	c, err := NewClientFromConfig(context.Background(), configWith("ghp_token", 0), discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NewClientFromConfig(context.Background(), configWith("", 42), discardLogger())
	assert.Error(t, err, "missing private key file")
}

func configWith(token string, appID int64) config.GitHubConfig {
	cfg := config.GitHubConfig{Token: token, AppID: appID}
	if appID != 0 {
		cfg.PrivateKeyPath = "testdata/does-not-exist.pem"
		cfg.InstallationID = 7
	}
	return cfg
}
