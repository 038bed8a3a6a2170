package components

import (
	"context"
	"fmt"
	"log/slog"

	"herald/internal/config"
	"herald/internal/core"
	"herald/internal/sources"
)

// ServiceComponent builds the adapters and the aggregation service on top
// of the storage component.
type ServiceComponent struct {
	registry *Registry
	config   *config.Config
	logger   *slog.Logger
	service  *core.Service
}

func NewServiceComponent(registry *Registry, cfg *config.Config, logger *slog.Logger) *ServiceComponent {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceComponent{
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

func (c *ServiceComponent) Name() string {
	return ServiceComponentName
}

func (c *ServiceComponent) Dependencies() []string {
	return []string{StorageComponentName}
}

func (c *ServiceComponent) Validate() error {
	if c.config.Aggregator.Concurrency <= 0 {
		return fmt.Errorf("service: concurrency must be positive")
	}
	if c.config.Aggregator.Timeout() <= 0 {
		return fmt.Errorf("service: fetch timeout must be positive")
	}
	return nil
}

func (c *ServiceComponent) Initialize(ctx context.Context) error {
	store := c.registry.Get(StorageComponentName).(*StorageComponent).Store()
	if store == nil {
		return fmt.Errorf("service: storage is not initialized")
	}

	agg := c.config.Aggregator
	client := sources.NewHTTPClient(agg.Timeout())
	userAgent := c.config.Scraper.UserAgent

	feeds := sources.NewFeedAdapter(client, userAgent, c.logger)
	sites := sources.NewScrapeAdapter(client, userAgent,
		sources.WithStrictAlignment(agg.StrictAlignment),
		sources.WithScrapeLogger(c.logger),
	)

	c.service = core.NewService(store, feeds, sites, core.AggregatorConfig{
		Concurrency:  agg.Concurrency,
		FetchTimeout: agg.Timeout(),
		Logger:       c.logger,
	})
	return nil
}

func (c *ServiceComponent) Close(ctx context.Context) error {
	return nil
}

func (c *ServiceComponent) Service() *core.Service {
	return c.service
}
