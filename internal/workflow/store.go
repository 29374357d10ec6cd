// Package workflow reads workflow templates from ConfigMaps and submits
// Argo Workflow instances through the Kubernetes API.
package workflow

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/climateengine/build-sensor/internal/core"
)

// ConfigMapStore implements core.TemplateStore on top of ConfigMaps.
type ConfigMapStore struct {
	client kubernetes.Interface
}

// NewConfigMapStore creates a template store reading through client.
func NewConfigMapStore(client kubernetes.Interface) *ConfigMapStore {
	return &ConfigMapStore{client: client}
}

// Get returns the template stored under ref.Key. Text data takes
// precedence over binary data.
func (s *ConfigMapStore) Get(ctx context.Context, ref core.TemplateRef) ([]byte, error) {
	cm, err := s.client.CoreV1().ConfigMaps(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: configmap %s/%s does not exist", core.ErrTemplateNotFound, ref.Namespace, ref.Name)
		}
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", ref.Namespace, ref.Name, err)
	}

	if v, ok := cm.Data[ref.Key]; ok {
		return []byte(v), nil
	}
	if b, ok := cm.BinaryData[ref.Key]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: configmap %s/%s has no key %q", core.ErrTemplateNotFound, ref.Namespace, ref.Name, ref.Key)
}
