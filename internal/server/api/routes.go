package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"herald/internal/middleware"
	"herald/internal/server/feed"
)

const (
	apiBasePath   = "/api"
	feedsBasePath = "/feeds"
	sitesBasePath = "/sites"
	paramID       = "id"
)

type Options struct {
	DefaultLimit   int
	RequestTimeout time.Duration
	Feed           *feed.Handler
	Logger         *slog.Logger
}

func NewRouter(service Service, opts Options) http.Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handler{service: service, defaultLimit: opts.DefaultLimit}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(opts.RequestTimeout))

	r.Method(http.MethodGet, "/health", appHandler(h.health))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Method(http.MethodGet, "/sources", appHandler(h.listSources))
		r.Method(http.MethodGet, "/articles", appHandler(h.articles))

		r.Route(feedsBasePath, func(r chi.Router) {
			r.Method(http.MethodPost, "/", appHandler(h.addFeed))
			r.Method(http.MethodPost, "/import", appHandler(h.importOPML))
			r.Method(http.MethodPut, "/{"+paramID+"}", appHandler(h.updateFeed))
			r.Method(http.MethodDelete, "/{"+paramID+"}", appHandler(h.deleteFeed))
		})

		r.Route(sitesBasePath, func(r chi.Router) {
			r.Method(http.MethodPost, "/", appHandler(h.addSite))
			r.Method(http.MethodPut, "/{"+paramID+"}", appHandler(h.updateSite))
			r.Method(http.MethodDelete, "/{"+paramID+"}", appHandler(h.deleteSite))
		})
	})

	if opts.Feed != nil {
		opts.Feed.Mount(r)
	}

	return r
}
