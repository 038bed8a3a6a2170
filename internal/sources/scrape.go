package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html/charset"

	"herald/internal/types"
)

// ScrapeAdapter turns an HTML page into articles by pairing the Nth title
// match with the Nth link match (and Nth body match when configured).
// Pairing is by list position only, so selectors that match a different
// number of elements can misalign titles and links. Strict mode rejects a
// page whose selector counts disagree instead of pairing what it can.
type ScrapeAdapter struct {
	client    *http.Client
	userAgent string
	strict    bool
	logger    *slog.Logger
}

type ScrapeOption func(*ScrapeAdapter)

func WithStrictAlignment(strict bool) ScrapeOption {
	return func(a *ScrapeAdapter) {
		a.strict = strict
	}
}

func WithScrapeLogger(logger *slog.Logger) ScrapeOption {
	return func(a *ScrapeAdapter) {
		a.logger = logger
	}
}

func NewScrapeAdapter(client *http.Client, userAgent string, opts ...ScrapeOption) *ScrapeAdapter {
	if client == nil {
		client = http.DefaultClient
	}

	a := &ScrapeAdapter{
		client:    client,
		userAgent: userAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *ScrapeAdapter) Fetch(ctx context.Context, site types.ScrapeSite, limit int) ([]types.Article, error) {
	if limit <= 0 {
		return nil, types.NewValidationError("limit", "must be a positive number")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.URL, nil)
	if err != nil {
		return nil, types.NewSourceError(types.ErrUnreachable, site.URL, err)
	}
	setBrowserHeaders(req, a.userAgent)

	a.logger.Debug("Fetching page", "site", site.Name, "url", site.URL)

	resp, err := a.client.Do(req)
	if err != nil {
		if se := classifyTransportError(site.URL, err); se != nil {
			return nil, se
		}
		return nil, types.NewSourceError(types.ErrUnreachable, site.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(site.URL, resp)
	}

	// Pages are decoded to UTF-8 using the Content-Type charset, then any
	// <meta> declaration, then content sniffing.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		if se := classifyTransportError(site.URL, err); se != nil {
			return nil, se
		}
		return nil, types.NewSourceError(types.ErrParse, site.URL, fmt.Errorf("failed to decode page: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		if se := classifyTransportError(site.URL, err); se != nil {
			return nil, se
		}
		return nil, types.NewSourceError(types.ErrParse, site.URL, fmt.Errorf("failed to parse HTML: %w", err))
	}

	return a.Extract(doc, site, limit)
}

// Extract applies the site selectors to doc. A link element without an
// href fails the whole site.
func (a *ScrapeAdapter) Extract(doc *goquery.Document, site types.ScrapeSite, limit int) ([]types.Article, error) {
	titles, err := selectAll(doc, site.URL, "title_selector", site.TitleSelector)
	if err != nil {
		return nil, err
	}

	links, err := selectAll(doc, site.URL, "link_selector", site.LinkSelector)
	if err != nil {
		return nil, err
	}

	var bodies *goquery.Selection
	if site.HasBody() {
		bodies, err = selectAll(doc, site.URL, "body_selector", site.BodySelector)
		if err != nil {
			return nil, err
		}
	}

	counts := map[string]int{
		"titles": titles.Length(),
		"links":  links.Length(),
	}
	n := min(titles.Length(), links.Length())
	if bodies != nil {
		counts["bodies"] = bodies.Length()
		n = min(n, bodies.Length())
	}

	if !aligned(counts) {
		if a.strict {
			return nil, types.NewSourceError(types.ErrAlignment, site.URL,
				fmt.Errorf("selector match counts differ: %v", counts)).WithDetail("counts", counts)
		}
		a.logger.Warn("Selector match counts differ, pairing by position",
			"site", site.Name, "url", site.URL, "counts", counts)
	}
	n = min(n, limit)

	articles := make([]types.Article, 0, n)
	for i := 0; i < n; i++ {
		href, ok := links.Eq(i).Attr("href")
		if !ok {
			return nil, types.NewSourceError(types.ErrAttributeNotFound, site.URL,
				fmt.Errorf("link match %d has no href attribute", i)).WithDetail("index", i)
		}

		article := types.Article{
			Source:      site.URL,
			PublishedAt: types.UnknownPublished,
			Title:       cleanText(titles.Eq(i).Text()),
			Link:        href,
		}
		if bodies != nil {
			article.Body = cleanText(bodies.Eq(i).Text())
		}

		articles = append(articles, article)
	}

	return articles, nil
}

func selectAll(doc *goquery.Document, rawURL, field, selector string) (*goquery.Selection, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, types.NewSourceError(types.ErrParse, rawURL,
			fmt.Errorf("invalid %s %q: %w", field, selector, err)).WithDetail("selector", selector)
	}
	return doc.FindMatcher(matcher), nil
}

func aligned(counts map[string]int) bool {
	first := -1
	for _, c := range counts {
		if first == -1 {
			first = c
			continue
		}
		if c != first {
			return false
		}
	}
	return true
}
