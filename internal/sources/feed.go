package sources

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"herald/internal/types"
)

type FeedAdapter struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewFeedAdapter(client *http.Client, userAgent string, logger *slog.Logger) *FeedAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedAdapter{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch retrieves the feed of src and returns at most limit entries in feed
// order.
func (a *FeedAdapter) Fetch(ctx context.Context, src types.FeedSource, limit int) ([]types.Article, error) {
	if limit <= 0 {
		return nil, types.NewValidationError("limit", "must be a positive number")
	}

	// gofeed parsers keep per-parse state, so one is built per call.
	parser := gofeed.NewParser()
	parser.Client = a.client
	parser.UserAgent = a.userAgent
	if parser.UserAgent == "" {
		parser.UserAgent = DefaultUserAgent
	}

	a.logger.Debug("Fetching feed", "source", src.Name, "url", src.URL)

	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, classifyFeedError(src.URL, err)
	}

	articles := FeedArticles(feed, src, limit)
	a.logger.Debug("Feed parsed", "source", src.Name, "entries", len(feed.Items), "kept", len(articles))

	return articles, nil
}

// FeedArticles converts the first limit entries of feed. Missing entry
// fields are left empty rather than failing the whole feed.
func FeedArticles(feed *gofeed.Feed, src types.FeedSource, limit int) []types.Article {
	label := feedLabel(feed, src)

	limit = min(limit, len(feed.Items))
	articles := make([]types.Article, 0, limit)

	for _, item := range feed.Items[:limit] {
		if item == nil {
			continue
		}

		publishedAt, parsed := publishedAt(item)
		articles = append(articles, types.Article{
			Source:          label,
			PublishedAt:     publishedAt,
			PublishedParsed: parsed,
			Title:           stripHTML(item.Title),
			Link:            strings.TrimSpace(item.Link),
		})
	}

	return articles
}

func feedLabel(feed *gofeed.Feed, src types.FeedSource) string {
	if title := stripHTML(feed.Title); title != "" {
		return title
	}
	if src.Name != "" {
		return src.Name
	}
	return src.URL
}

func publishedAt(item *gofeed.Item) (string, *time.Time) {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(time.RFC3339), item.PublishedParsed
	case strings.TrimSpace(item.Published) != "":
		return strings.TrimSpace(item.Published), nil
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(time.RFC3339), item.UpdatedParsed
	case strings.TrimSpace(item.Updated) != "":
		return strings.TrimSpace(item.Updated), nil
	default:
		return types.UnknownPublished, nil
	}
}

func classifyFeedError(rawURL string, err error) error {
	if se := classifyTransportError(rawURL, err); se != nil {
		return se
	}

	se := types.NewSourceError(types.ErrParse, rawURL, err)
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		se.WithDetail("reason", "feed type not detected")
	}
	return se
}
