package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"herald/internal/types"
)

const (
	DefaultConcurrency  = 4
	DefaultFetchTimeout = 10 * time.Second
)

type FeedFetcher interface {
	Fetch(ctx context.Context, src types.FeedSource, limit int) ([]types.Article, error)
}

type SiteFetcher interface {
	Fetch(ctx context.Context, site types.ScrapeSite, limit int) ([]types.Article, error)
}

type SourceLister interface {
	ListSources(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error)
}

type SourceListerFunc func(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error)

func (f SourceListerFunc) ListSources(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error) {
	return f(ctx)
}

type AggregatorConfig struct {
	// Concurrency bounds the number of sources fetched at once. 1 fetches
	// sources one after another.
	Concurrency  int
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// Aggregator holds no state between calls. Every call reads the current
// source list and fetches each source with its own timeout.
type Aggregator struct {
	sources     SourceLister
	feeds       FeedFetcher
	sites       SiteFetcher
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

func NewAggregator(sources SourceLister, feeds FeedFetcher, sites SiteFetcher, cfg AggregatorConfig) *Aggregator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Aggregator{
		sources:     sources,
		feeds:       feeds,
		sites:       sites,
		concurrency: cfg.Concurrency,
		timeout:     cfg.FetchTimeout,
		logger:      cfg.Logger,
	}
}

type job struct {
	status types.SourceStatus
	fetch  func(ctx context.Context, limit int) ([]types.Article, error)
}

type outcome struct {
	articles []types.Article
	status   types.SourceStatus
}

// Aggregate fetches up to limit articles from every source. Articles come
// back in store order, all feeds before all sites, regardless of which
// fetch finishes first. A failing source is recorded in the report and
// never fails the call.
func (a *Aggregator) Aggregate(ctx context.Context, limit int) (*types.Report, error) {
	if limit <= 0 {
		return nil, types.NewValidationError("limit", "must be a positive number")
	}

	started := time.Now()
	runID := uuid.NewString()

	feeds, sites, err := a.sources.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	jobs := a.buildJobs(feeds, sites)
	a.logger.Info("Aggregation started", "run_id", runID, "sources", len(jobs), "limit", limit)

	outcomes := make([]outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			outcomes[i] = a.run(ctx, j, limit)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregation canceled: %w", err)
	}

	report := &types.Report{
		RunID:     runID,
		StartedAt: started,
		Articles:  make([]types.Article, 0),
		Statuses:  make([]types.SourceStatus, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		report.Articles = append(report.Articles, o.articles...)
		report.Statuses = append(report.Statuses, o.status)
	}
	report.Duration = time.Since(started)

	a.logger.Info("Aggregation finished",
		"run_id", runID,
		"articles", len(report.Articles),
		"failed", len(report.Failed()),
		"duration", report.Duration,
	)

	return report, nil
}

func (a *Aggregator) buildJobs(feeds []types.FeedSource, sites []types.ScrapeSite) []job {
	jobs := make([]job, 0, len(feeds)+len(sites))

	for _, feed := range feeds {
		feed := feed
		jobs = append(jobs, job{
			status: types.SourceStatus{Kind: types.KindFeed, ID: feed.ID, Name: feed.Name, URL: feed.URL},
			fetch: func(ctx context.Context, limit int) ([]types.Article, error) {
				return a.feeds.Fetch(ctx, feed, limit)
			},
		})
	}

	for _, site := range sites {
		site := site
		jobs = append(jobs, job{
			status: types.SourceStatus{Kind: types.KindSite, ID: site.ID, Name: site.Name, URL: site.URL},
			fetch: func(ctx context.Context, limit int) ([]types.Article, error) {
				return a.sites.Fetch(ctx, site, limit)
			},
		})
	}

	return jobs
}

func (a *Aggregator) run(ctx context.Context, j job, limit int) (o outcome) {
	start := time.Now()
	o.status = j.status

	defer func() {
		if r := recover(); r != nil {
			o.articles = nil
			o.status.Count = 0
			o.status.Error = fmt.Sprintf("panic: %v", r)
			o.status.ErrorKind = types.ErrParse
			a.logger.Error("Source panicked", "source", j.status.Name, "url", j.status.URL, "panic", r)
		}
		o.status.DurationMS = time.Since(start).Milliseconds()
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	articles, err := j.fetch(fetchCtx, limit)
	if err != nil {
		o.status.Error = err.Error()
		if se, ok := types.AsSourceError(err); ok {
			o.status.ErrorKind = se.Kind
		}
		a.logger.Warn("Source failed",
			"kind", j.status.Kind,
			"source", j.status.Name,
			"url", j.status.URL,
			"error", err,
			"error_kind", o.status.ErrorKind,
		)
		return o
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}

	o.articles = articles
	o.status.Count = len(articles)
	a.logger.Info("Source fetched", "kind", j.status.Kind, "source", j.status.Name, "count", len(articles))

	return o
}
