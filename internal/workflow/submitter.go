package workflow

import (
	"context"
	"fmt"
	"log/slog"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

const (
	argoGroup        = "argoproj.io"
	argoVersion      = "v1alpha1"
	workflowResource = "workflows"

	// Kind is the object kind accepted for submission.
	Kind = "Workflow"

	defaultGenerateName = "build-sensor-"
)

// GVR is the Argo Workflow resource.
var GVR = schema.GroupVersionResource{
	Group:    argoGroup,
	Version:  argoVersion,
	Resource: workflowResource,
}

// Submitter implements core.WorkflowSubmitter with the dynamic client.
type Submitter struct {
	client dynamic.Interface
	logger *slog.Logger
}

// NewSubmitter creates a workflow submitter.
func NewSubmitter(client dynamic.Interface, logger *slog.Logger) *Submitter {
	return &Submitter{client: client, logger: logger}
}

// Submit creates wf in namespace. A fixed metadata.name is turned into a
// generateName prefix so that every submission creates a new instance.
func (s *Submitter) Submit(ctx context.Context, namespace string, wf *unstructured.Unstructured) (string, error) {
	obj := wf.DeepCopy()
	if obj.GetKind() != Kind {
		return "", fmt.Errorf("refusing to submit object of kind %q", obj.GetKind())
	}
	if obj.GetAPIVersion() == "" {
		obj.SetAPIVersion(argoGroup + "/" + argoVersion)
	}

	if obj.GetGenerateName() == "" {
		prefix := defaultGenerateName
		if name := obj.GetName(); name != "" {
			prefix = name + "-"
		}
		obj.SetGenerateName(prefix)
	}
	obj.SetName("")
	obj.SetResourceVersion("")
	obj.SetNamespace(namespace)

	created, err := s.client.Resource(GVR).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return "", err
	}

	s.logger.Debug("workflow created", "namespace", namespace, "name", created.GetName(), "generate_name", obj.GetGenerateName())
	return created.GetName(), nil
}
