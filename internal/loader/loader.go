package loader

import (
	"context"
	"fmt"
	"log/slog"

	"herald/internal/components"
	"herald/internal/config"
	"herald/internal/state"
)

type Loader struct {
	config *config.Config
	logger *slog.Logger
}

func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		config: cfg,
		logger: logger,
	}
}

func (l *Loader) Initialize(ctx context.Context) (*state.State, error) {
	registry := components.NewRegistry()
	l.logger.Info("Initializing all components")

	if err := registry.Register(components.NewStorageComponent(l.config.Storage)); err != nil {
		return nil, fmt.Errorf("failed to register storage component: %w", err)
	}

	if err := registry.Register(components.NewServiceComponent(registry, l.config, l.logger)); err != nil {
		return nil, fmt.Errorf("failed to register service component: %w", err)
	}

	if l.config.Server.IsEnabled() {
		if err := registry.Register(components.NewServerComponent(registry, l.config, l.logger)); err != nil {
			return nil, fmt.Errorf("failed to register server component: %w", err)
		}
	}

	if err := registry.InitializeAll(ctx); err != nil {
		if closeErr := registry.CloseAll(ctx); closeErr != nil {
			l.logger.Error("Failed to release components after init failure", "error", closeErr)
		}
		return nil, fmt.Errorf("component initialization failed: %w", err)
	}

	l.logger.Info("All components initialized successfully")

	service := registry.Get(components.ServiceComponentName).(*components.ServiceComponent).Service()
	return state.NewState(l.config, registry, service), nil
}

func LoadAndBuild(ctx context.Context, configPath string, logger *slog.Logger) (*state.State, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewLoader(cfg, logger).Initialize(ctx)
}
