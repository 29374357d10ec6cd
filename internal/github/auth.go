package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"

	"github.com/climateengine/build-sensor/internal/config"
)

// NewInstallationClient creates a client authenticated as a GitHub App
// installation. Installation tokens are refreshed by the transport.
func NewInstallationClient(cfg config.GitHubConfig, logger *slog.Logger) (Client, error) {
	logger.Info("creating GitHub installation client", "app_id", cfg.AppID, "installation_id", cfg.InstallationID)

	transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport from %s: %w", cfg.PrivateKeyPath, err)
	}
	return NewGitHubClient(github.NewClient(&http.Client{Transport: transport}), logger), nil
}

// NewClientFromConfig prefers GitHub App credentials and falls back to a
// token.
func NewClientFromConfig(ctx context.Context, cfg config.GitHubConfig, logger *slog.Logger) (Client, error) {
	switch {
	case cfg.UsesApp():
		return NewInstallationClient(cfg, logger)
	case cfg.Token != "":
		return NewPATClient(ctx, cfg.Token, logger), nil
	default:
		return nil, errors.New("no GitHub credentials configured")
	}
}
