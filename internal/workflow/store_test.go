package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/climateengine/build-sensor/internal/core"
)

const workflowYAML = `apiVersion: argoproj.io/v1alpha1
kind: Workflow
metadata:
  generateName: py-spfi-api-build-
spec:
  entrypoint: build
`

func TestConfigMapStore_Get(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "py-spfi-api-build", Namespace: "argo-events"},
		Data:       map[string]string{"workflow": workflowYAML},
		BinaryData: map[string][]byte{"binary": []byte("kind: Workflow")},
	})
	store := NewConfigMapStore(client)
	ctx := context.Background()

	t.Run("text key", func(t *testing.T) {
		got, err := store.Get(ctx, core.TemplateRef{Namespace: "argo-events", Name: "py-spfi-api-build", Key: "workflow"})
		require.NoError(t, err)
		assert.Equal(t, workflowYAML, string(got))
	})

	t.Run("binary key", func(t *testing.T) {
		got, err := store.Get(ctx, core.TemplateRef{Namespace: "argo-events", Name: "py-spfi-api-build", Key: "binary"})
		require.NoError(t, err)
		assert.Equal(t, "kind: Workflow", string(got))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, core.TemplateRef{Namespace: "argo-events", Name: "py-spfi-api-build", Key: "nope"})
		assert.ErrorIs(t, err, core.ErrTemplateNotFound)
	})

	t.Run("missing configmap", func(t *testing.T) {
		_, err := store.Get(ctx, core.TemplateRef{Namespace: "argo-events", Name: "absent", Key: "workflow"})
		assert.ErrorIs(t, err, core.ErrTemplateNotFound)
	})

	t.Run("wrong namespace", func(t *testing.T) {
		_, err := store.Get(ctx, core.TemplateRef{Namespace: "default", Name: "py-spfi-api-build", Key: "workflow"})
		assert.ErrorIs(t, err, core.ErrTemplateNotFound)
	})
}

func TestConfigMapStore_GetPropagatesAPIErrors(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("get", "configmaps", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	_, err := NewConfigMapStore(client).Get(context.Background(), core.TemplateRef{Namespace: "ns", Name: "a", Key: "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}
