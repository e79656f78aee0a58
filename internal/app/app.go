// Package app assembles the service from configuration for the entrypoints.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nfrund/causal/internal/config"
	"github.com/nfrund/causal/internal/database"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/logging"
	"github.com/nfrund/causal/internal/server"
)

// Dependencies holds the core services built from configuration.
type Dependencies struct {
	Config config.Provider
	Logger *slog.Logger
	Repo   domain.TopicRepository
}

// Load reads configuration, configures logging and opens the store selected
// by DATABASE_URL. The caller must close Repo.
func Load(ctx context.Context) (*Dependencies, error) {
	return LoadWithLogOutput(ctx, os.Stdout)
}

// LoadWithLogOutput is Load with logs written to w. The CLI logs to stderr so
// its stdout stays machine readable.
func LoadWithLogOutput(ctx context.Context, w io.Writer) (*Dependencies, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return fromConfig(ctx, cfg, w)
}

// FromConfig is Load for an already built configuration.
func FromConfig(ctx context.Context, cfg config.Provider) (*Dependencies, error) {
	return fromConfig(ctx, cfg, os.Stdout)
}

func fromConfig(ctx context.Context, cfg config.Provider, w io.Writer) (*Dependencies, error) {
	logger := logging.NewWithWriter(w, cfg.GetLogFormat(), cfg.GetLogLevel())
	slog.SetDefault(logger)

	repo, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Dependencies{Config: cfg, Logger: logger, Repo: repo}, nil
}

// Serve runs the HTTP server until ctx is canceled. It takes ownership of deps.Repo.
func Serve(ctx context.Context, deps *Dependencies) error {
	s := server.New(deps.Config, deps.Repo)
	s.RegisterRoutes()
	return s.Start(ctx)
}
