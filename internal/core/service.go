package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"herald/internal/sources"
	"herald/internal/storage"
	"herald/internal/types"
)

// Service is the functional surface used by the HTTP API and the CLI.
// Mutations report their outcome as a types.Result instead of an error.
type Service struct {
	store      storage.StorageInterface
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewService(store storage.StorageInterface, feeds FeedFetcher, sites SiteFetcher, cfg AggregatorConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	lister := SourceListerFunc(func(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error) {
		return storage.ListSources(ctx, store)
	})

	return &Service{
		store:      store,
		aggregator: NewAggregator(lister, feeds, sites, cfg),
		logger:     cfg.Logger,
	}
}

func (s *Service) Aggregate(ctx context.Context, limit int) (*types.Report, error) {
	return s.aggregator.Aggregate(ctx, limit)
}

func (s *Service) ListSources(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error) {
	return storage.ListSources(ctx, s.store)
}

func (s *Service) AddFeedSource(ctx context.Context, name, url string) types.Result {
	feed, err := s.store.Feeds().Add(ctx, name, url)
	if err != nil {
		return s.fail("add feed source", err)
	}

	s.logger.Info("Feed source added", "id", feed.ID, "name", feed.Name)
	return types.OK("feed source added").WithID(feed.ID)
}

func (s *Service) UpdateFeedSource(ctx context.Context, id int64, name, url string) types.Result {
	if err := s.store.Feeds().Update(ctx, id, name, url); err != nil {
		return s.fail("update feed source", err)
	}

	s.logger.Info("Feed source updated", "id", id)
	return types.OK("feed source updated").WithID(id)
}

func (s *Service) DeleteFeedSource(ctx context.Context, id int64) types.Result {
	if err := s.store.Feeds().Delete(ctx, id); err != nil {
		return s.fail("delete feed source", err)
	}

	s.logger.Info("Feed source deleted", "id", id)
	return types.OK("feed source deleted").WithID(id)
}

func (s *Service) AddScrapeSite(ctx context.Context, site types.ScrapeSite) types.Result {
	added, err := s.store.Sites().Add(ctx, site)
	if err != nil {
		return s.fail("add scrape site", err)
	}

	s.logger.Info("Scrape site added", "id", added.ID, "name", added.Name)
	return types.OK("scrape site added").WithID(added.ID)
}

// UpdateScrapeSite rewrites the site with the given id. With
// storage.KeepBody the stored body selector survives the update.
func (s *Service) UpdateScrapeSite(ctx context.Context, site types.ScrapeSite, body storage.BodyUpdate) types.Result {
	if err := s.store.Sites().Update(ctx, site, body); err != nil {
		return s.fail("update scrape site", err)
	}

	s.logger.Info("Scrape site updated", "id", site.ID)
	return types.OK("scrape site updated").WithID(site.ID)
}

func (s *Service) DeleteScrapeSite(ctx context.Context, id int64) types.Result {
	if err := s.store.Sites().Delete(ctx, id); err != nil {
		return s.fail("delete scrape site", err)
	}

	s.logger.Info("Scrape site deleted", "id", id)
	return types.OK("scrape site deleted").WithID(id)
}

// ImportOPML adds every subscription in the OPML document as a feed source.
// Import stops at the first source the store rejects.
func (s *Service) ImportOPML(ctx context.Context, r io.Reader) types.Result {
	feeds, err := sources.ParseOPML(r)
	if err != nil {
		return s.fail("import OPML", types.NewValidationError("opml", err.Error()))
	}

	imported := 0
	for _, feed := range feeds {
		if _, err := s.store.Feeds().Add(ctx, feed.Name, feed.URL); err != nil {
			return s.fail("import OPML", fmt.Errorf("feed %q after %d imported: %w", feed.URL, imported, err))
		}
		imported++
	}

	s.logger.Info("OPML imported", "count", imported)
	return types.OK(fmt.Sprintf("imported %d feed sources", imported))
}

func (s *Service) fail(op string, err error) types.Result {
	if types.IsValidation(err) || types.IsNotFound(err) {
		s.logger.Debug("Request rejected", "op", op, "error", err)
	} else {
		s.logger.Error("Operation failed", "op", op, "error", err)
	}
	return types.Fail(err)
}
