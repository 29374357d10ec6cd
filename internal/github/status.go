package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v73/github"

	"github.com/climateengine/build-sensor/internal/core"
)

// Commit status states used by the reporter.
const (
	StatePending = "pending"
	StateError   = "error"
)

const maxDescriptionLen = 140

// StatusReporter implements core.StatusReporter with commit statuses.
type StatusReporter struct {
	client    Client
	targetURL string
	logger    *slog.Logger
}

// NewStatusReporter creates a reporter. targetURL, when set, is linked from
// every status; "{workflow}" and "{namespace}" are substituted.
func NewStatusReporter(client Client, targetURL string, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{client: client, targetURL: targetURL, logger: logger}
}

// StatusContext is the commit status context for one trigger.
func StatusContext(sensor, trigger string) string {
	return fmt.Sprintf("build-sensor/%s/%s", sensor, trigger)
}

// Report posts a pending status naming the submitted workflow, or an error
// status when the trigger failed. Events without a repository or head
// revision are skipped.
func (r *StatusReporter) Report(ctx context.Context, env *core.Envelope, o core.TriggerOutcome) error {
	repo, sha := o.Repository, o.HeadSHA
	if repo == "" {
		repo = env.Repository()
	}
	if sha == "" {
		sha = env.HeadSHA()
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || sha == "" {
		r.logger.Debug("skipping commit status, event has no repository revision", "sensor", o.Sensor, "trigger", o.Trigger)
		return nil
	}

	status := &github.RepoStatus{
		Context: github.Ptr(StatusContext(o.Sensor, o.Trigger)),
	}
	if o.Succeeded() {
		status.State = github.Ptr(StatePending)
		status.Description = github.Ptr(truncate("Workflow " + o.WorkflowName + " submitted"))
		if r.targetURL != "" {
			target := strings.NewReplacer(
				"{workflow}", o.WorkflowName,
				"{namespace}", o.Template.Namespace,
			).Replace(r.targetURL)
			status.TargetURL = github.Ptr(target)
		}
	} else {
		status.State = github.Ptr(StateError)
		status.Description = github.Ptr(truncate("Trigger failed: " + errorText(o.Err)))
	}

	if _, err := r.client.CreateStatus(ctx, owner, name, sha, status); err != nil {
		return err
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return "no workflow submitted"
	}
	return err.Error()
}

func truncate(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	return s[:maxDescriptionLen-3] + "..."
}
