package core

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

var (
	// ErrTemplateNotFound is returned when the ConfigMap holding a workflow
	// template, or the key inside it, does not exist.
	ErrTemplateNotFound = errors.New("workflow template not found")
	// ErrSubmissionFailed is returned when a workflow could not be created,
	// either because retries were exhausted or the error was not transient.
	ErrSubmissionFailed = errors.New("workflow submission failed")
)

// TemplateRef points at a workflow template blob stored in a ConfigMap.
type TemplateRef struct {
	Namespace string
	Name      string
	Key       string
}

func (r TemplateRef) String() string {
	return fmt.Sprintf("%s/%s[%s]", r.Namespace, r.Name, r.Key)
}

// TemplateStore is the read-only lookup for persisted workflow templates.
//
//go:generate mockgen -destination=../../mocks/mock_core.go -package=mocks . TemplateStore,WorkflowSubmitter,DispatchRecorder,StatusReporter,Job
type TemplateStore interface {
	// Get returns the raw template (YAML or JSON). It returns an error
	// wrapping ErrTemplateNotFound when the ConfigMap or key is missing.
	Get(ctx context.Context, ref TemplateRef) ([]byte, error)
}

// WorkflowSubmitter creates new workflow instances in the executor.
type WorkflowSubmitter interface {
	// Submit creates the workflow in the given namespace and returns the
	// name the executor assigned to it.
	Submit(ctx context.Context, namespace string, wf *unstructured.Unstructured) (string, error)
}
