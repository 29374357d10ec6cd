// Package kube loads Kubernetes client configuration.
package kube

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Clients bundles the typed and dynamic clients built from one REST config.
type Clients struct {
	Kubernetes kubernetes.Interface
	Dynamic    dynamic.Interface
}

// LoadConfig prefers the in-cluster configuration and falls back to a
// kubeconfig file: the given path, or ~/.kube/config when path is empty.
func LoadConfig(kubeconfig string, logger *slog.Logger) (*rest.Config, error) {
	config, err := rest.InClusterConfig()
	if err == nil {
		logger.Info("using in-cluster Kubernetes configuration")
		return config, nil
	}
	logger.Debug("in-cluster config not available", "reason", err)

	if kubeconfig == "" {
		kubeconfig = filepath.Join(homeDir(), ".kube", "config")
	}
	config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig from %s: %w", kubeconfig, err)
	}
	logger.Info("using local kubeconfig", "path", kubeconfig)
	return config, nil
}

// NewClients creates the clients used to read templates and submit workflows.
func NewClients(config *rest.Config) (*Clients, error) {
	kc, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	dc, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	return &Clients{Kubernetes: kc, Dynamic: dc}, nil
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}
