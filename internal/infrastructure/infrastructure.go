// Package infrastructure provides core service initialization for application
// startup. It assembles the common dependencies (logging, database, storage,
// authentication, metrics) that domain systems require, once, at process
// start; the resulting handles are passed by reference into the modules.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/registrum/registrum/internal/config"
	"github.com/registrum/registrum/internal/metrics"
	"github.com/registrum/registrum/pkg/database"
	"github.com/registrum/registrum/pkg/lifecycle"
	"github.com/registrum/registrum/pkg/middleware"
	"github.com/registrum/registrum/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Auth      *middleware.Authenticator
	Metrics   *metrics.Metrics
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
// OIDC discovery for the authenticator happens here, exactly once.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	auth, err := middleware.NewAuthenticator(ctx, &cfg.API.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Auth:      auth,
		Metrics:   metrics.New(),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
