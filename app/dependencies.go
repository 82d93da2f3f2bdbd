package app

import (
	"context"
	"fmt"

	"github.com/upb/deutschhelfer/config"
	"github.com/upb/deutschhelfer/models"
	"github.com/upb/deutschhelfer/repositories"
	"github.com/upb/deutschhelfer/repositories/sqlstore"
	"github.com/upb/deutschhelfer/services/assistant"
	"github.com/upb/deutschhelfer/services/providers"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *sqlstore.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *sqlstore.RepositoryFactory

	// Repositories
	History     repositories.HistoryRepository
	Credentials repositories.CredentialRepository
	Settings    repositories.SettingsRepository

	// Provider adapter
	Adapter *providers.Adapter

	// Assistant
	Assistant *assistant.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...providers.ClientOption) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initProviders(cfg, opts)
	deps.initAssistant(cfg)

	logger.Debug("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the store and applies the schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := sqlstore.NewRepositoryFactory(ctx, cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.History = repos.History
	d.Credentials = repos.Credentials
	d.Settings = repos.Settings
}

// initProviders builds the HTTP client, image transformer and adapter
func (d *Dependencies) initProviders(cfg *config.Config, opts []providers.ClientOption) {
	for p, endpoint := range cfg.Endpoints.Overrides() {
		opts = append(opts, providers.WithEndpoint(p, endpoint))
		d.Logger.Info("provider endpoint overridden",
			zap.String("provider", string(p)),
			zap.String("endpoint", endpoint))
	}

	client := providers.NewClient(d.Logger, opts...)
	images := providers.NewImageTransformer(cfg.App.ImageDir, d.Logger)
	d.Adapter = providers.NewAdapter(client, images, cfg.App.Locale, d.Logger)
}

func (d *Dependencies) initAssistant(cfg *config.Config) {
	repos := &repositories.Repositories{
		History:     d.History,
		Credentials: d.Credentials,
		Settings:    d.Settings,
	}
	defaults := models.NewSettings(cfg.App.DefaultProvider, cfg.App.Locale)
	d.Assistant = assistant.NewService(d.Adapter, repos, cfg.Credentials.CredentialFor, defaults, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
