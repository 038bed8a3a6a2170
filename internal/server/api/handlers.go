package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"herald/internal/format"
	"herald/internal/storage"
	"herald/internal/types"
)

const maxBodyBytes = 1 << 20

type Service interface {
	Aggregate(ctx context.Context, limit int) (*types.Report, error)
	ListSources(ctx context.Context) ([]types.FeedSource, []types.ScrapeSite, error)
	AddFeedSource(ctx context.Context, name, url string) types.Result
	UpdateFeedSource(ctx context.Context, id int64, name, url string) types.Result
	DeleteFeedSource(ctx context.Context, id int64) types.Result
	AddScrapeSite(ctx context.Context, site types.ScrapeSite) types.Result
	UpdateScrapeSite(ctx context.Context, site types.ScrapeSite, body storage.BodyUpdate) types.Result
	DeleteScrapeSite(ctx context.Context, id int64) types.Result
	ImportOPML(ctx context.Context, r io.Reader) types.Result
}

type handler struct {
	service      Service
	defaultLimit int
}

// readOnlyFields are echoed back by clients that PUT a record they got
// from GET /api/sources. They are accepted and ignored.
type readOnlyFields struct {
	ID        json.RawMessage `json:"id,omitempty"`
	CreatedAt json.RawMessage `json:"created_at,omitempty"`
}

type feedRequest struct {
	readOnlyFields
	Name string `json:"name"`
	URL  string `json:"url"`
}

type siteRequest struct {
	readOnlyFields
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	TitleSelector string  `json:"title_selector"`
	LinkSelector  string  `json:"link_selector"`
	BodySelector  *string `json:"body_selector"`
}

func (s siteRequest) toSite(id int64) types.ScrapeSite {
	site := types.ScrapeSite{
		ID:            id,
		Name:          s.Name,
		URL:           s.URL,
		TitleSelector: s.TitleSelector,
		LinkSelector:  s.LinkSelector,
	}
	if s.BodySelector != nil {
		site.BodySelector = *s.BodySelector
	}
	return site
}

// bodyUpdate keeps the stored body selector when the request omits it.
// An explicit empty string clears it.
func (s siteRequest) bodyUpdate() storage.BodyUpdate {
	if s.BodySelector == nil {
		return storage.KeepBody
	}
	return storage.ReplaceBody
}

type sourcesResponse struct {
	Feeds []types.FeedSource `json:"feeds"`
	Sites []types.ScrapeSite `json:"sites"`
}

type articlesResponse struct {
	RunID    string                 `json:"run_id"`
	Articles []types.DisplayArticle `json:"articles"`
	Sources  []types.SourceStatus   `json:"sources"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) error {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (h *handler) listSources(w http.ResponseWriter, r *http.Request) error {
	feeds, sites, err := h.service.ListSources(r.Context())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	respondJSON(w, http.StatusOK, sourcesResponse{Feeds: feeds, Sites: sites})
	return nil
}

func (h *handler) addFeed(w http.ResponseWriter, r *http.Request) error {
	var req feedRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	respondResult(w, http.StatusCreated, h.service.AddFeedSource(r.Context(), req.Name, req.URL))
	return nil
}

func (h *handler) updateFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var req feedRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	respondResult(w, http.StatusOK, h.service.UpdateFeedSource(r.Context(), id, req.Name, req.URL))
	return nil
}

func (h *handler) deleteFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	respondResult(w, http.StatusOK, h.service.DeleteFeedSource(r.Context(), id))
	return nil
}

func (h *handler) importOPML(w http.ResponseWriter, r *http.Request) error {
	respondResult(w, http.StatusCreated, h.service.ImportOPML(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes)))
	return nil
}

func (h *handler) addSite(w http.ResponseWriter, r *http.Request) error {
	var req siteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	respondResult(w, http.StatusCreated, h.service.AddScrapeSite(r.Context(), req.toSite(0)))
	return nil
}

func (h *handler) updateSite(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var req siteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	respondResult(w, http.StatusOK, h.service.UpdateScrapeSite(r.Context(), req.toSite(id), req.bodyUpdate()))
	return nil
}

func (h *handler) deleteSite(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	respondResult(w, http.StatusOK, h.service.DeleteScrapeSite(r.Context(), id))
	return nil
}

func (h *handler) articles(w http.ResponseWriter, r *http.Request) error {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("limit must be an integer", err)
		}
		limit = n
	}

	style, err := format.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		return err
	}

	report, err := h.service.Aggregate(r.Context(), limit)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, articlesResponse{
		RunID:    report.RunID,
		Articles: format.New(style).Format(report.Articles),
		Sources:  report.Statuses,
	})
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, paramID)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body", err)
	}
	return nil
}
