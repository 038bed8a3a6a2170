package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"

	"herald/internal/types"
	"herald/internal/utils/hash"
)

type Aggregator interface {
	Aggregate(ctx context.Context, limit int) (*types.Report, error)
}

type Config struct {
	Title        string
	Link         string
	DefaultLimit int
}

// Handler re-publishes a fresh aggregation as RSS, Atom or JSON Feed.
// Items keep aggregation order.
type Handler struct {
	config     Config
	aggregator Aggregator
	logger     *slog.Logger
}

func New(config Config, aggregator Aggregator, logger *slog.Logger) *Handler {
	if config.Title == "" {
		config.Title = "Herald"
	}
	if config.Link == "" {
		config.Link = "http://localhost/"
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 5
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config:     config,
		aggregator: aggregator,
		logger:     logger,
	}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/feed.rss", h.serve(TypeRSS))
	r.Get("/feed.atom", h.serve(TypeAtom))
	r.Get("/feed.json", h.serve(TypeJSON))
}

func (h *Handler) serve(feedType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := h.config.DefaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		report, err := h.aggregator.Aggregate(r.Context(), limit)
		if err != nil {
			h.logger.Error("Failed to aggregate for feed", "type", feedType, "error", err)
			http.Error(w, "aggregation failed", http.StatusInternalServerError)
			return
		}

		body, contentType, err := Render(h.BuildFeed(report), feedType)
		if err != nil {
			h.logger.Error("Failed to render feed", "type", feedType, "error", err)
			http.Error(w, "failed to render feed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		fmt.Fprint(w, body)
	}
}

func Render(feed *feeds.Feed, feedType string) (string, string, error) {
	switch feedType {
	case TypeRSS:
		body, err := feed.ToRss()
		return body, "application/rss+xml; charset=utf-8", err
	case TypeAtom:
		body, err := feed.ToAtom()
		return body, "application/atom+xml; charset=utf-8", err
	case TypeJSON:
		body, err := feed.ToJSON()
		return body, "application/feed+json; charset=utf-8", err
	default:
		return "", "", fmt.Errorf("unknown feed type: %s", feedType)
	}
}

func (h *Handler) BuildFeed(report *types.Report) *feeds.Feed {
	items := make([]*feeds.Item, 0, len(report.Articles))

	for _, article := range report.Articles {
		item := &feeds.Item{
			Id:          hash.NewHash(article.Source, article.Link, article.Title).ComputeHash(),
			Title:       article.Title,
			Link:        &feeds.Link{Href: article.Link},
			Description: article.Body,
			Author:      &feeds.Author{Name: article.Source},
		}
		if article.PublishedParsed != nil {
			item.Created = *article.PublishedParsed
		}
		items = append(items, item)
	}

	return &feeds.Feed{
		Title:       h.config.Title,
		Link:        &feeds.Link{Href: h.config.Link},
		Description: fmt.Sprintf("Aggregated from %d sources", len(report.Succeeded())),
		Author:      &feeds.Author{Name: h.config.Title},
		Id:          report.RunID,
		Created:     report.StartedAt.UTC(),
		Updated:     time.Now().UTC(),
		Items:       items,
	}
}
