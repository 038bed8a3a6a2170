package components

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"herald/internal/config"
	"herald/internal/server/api"
	"herald/internal/server/feed"
)

type ServerComponent struct {
	registry *Registry
	config   *config.Config
	logger   *slog.Logger
	server   *api.Server
}

func NewServerComponent(registry *Registry, cfg *config.Config, logger *slog.Logger) *ServerComponent {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerComponent{
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

func (c *ServerComponent) Name() string {
	return ServerComponentName
}

func (c *ServerComponent) Dependencies() []string {
	return []string{ServiceComponentName}
}

func (c *ServerComponent) Validate() error {
	if c.config.Server.Address == "" {
		return fmt.Errorf("server: address is required")
	}
	return nil
}

func (c *ServerComponent) Initialize(ctx context.Context) error {
	svc := c.registry.Get(ServiceComponentName).(*ServiceComponent).Service()

	feedHandler := feed.New(feed.Config{
		Title:        c.config.Server.FeedTitle,
		Link:         c.config.Server.FeedLink,
		DefaultLimit: c.config.Aggregator.DefaultLimit,
	}, svc, c.logger)

	router := api.NewRouter(svc, api.Options{
		DefaultLimit:   c.config.Aggregator.DefaultLimit,
		RequestTimeout: c.config.Server.Timeout(),
		Feed:           feedHandler,
		Logger:         c.logger,
	})

	server := api.NewServer(c.config.Server.Address, router)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server: failed to start: %w", err)
	}

	c.server = server
	return nil
}

func (c *ServerComponent) Close(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

func (c *ServerComponent) Addr() net.Addr {
	if c.server == nil {
		return nil
	}
	return c.server.Addr()
}
