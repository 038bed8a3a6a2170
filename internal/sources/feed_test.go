package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"herald/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rssFeed(title string, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel>`)
	fmt.Fprintf(&b, "<title>%s</title><link>http://example.com</link>", title)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "<item><title>Story %d</title><link>http://example.com/%d</link>", i, i)
		fmt.Fprintf(&b, "<pubDate>Mon, 0%d Jan 2024 10:00:00 GMT</pubDate></item>", i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func serveBody(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedAdapter_RespectsLimitAndOrder(t *testing.T) {
	srv := serveBody(t, "application/rss+xml", rssFeed("Example News", 5))
	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "", discardLogger())

	articles, err := adapter.Fetch(context.Background(), types.FeedSource{Name: "ex", URL: srv.URL}, 3)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	for i, a := range articles {
		assert.Equal(t, "Example News", a.Source)
		assert.Equal(t, fmt.Sprintf("Story %d", i+1), a.Title)
		assert.Equal(t, fmt.Sprintf("http://example.com/%d", i+1), a.Link)
		assert.Empty(t, a.Body)
		require.NotNil(t, a.PublishedParsed)
	}
	assert.Equal(t, "2024-01-01T10:00:00Z", articles[0].PublishedAt)
}

func TestFeedAdapter_FewerEntriesThanLimit(t *testing.T) {
	srv := serveBody(t, "application/rss+xml", rssFeed("Small", 2))
	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "", discardLogger())

	articles, err := adapter.Fetch(context.Background(), types.FeedSource{URL: srv.URL}, 10)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestFeedAdapter_MissingFieldsDoNotFail(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel>
<item><title><![CDATA[No date &amp; <b>bold</b>]]></title><link>http://example.com/a</link></item>
</channel></rss>`
	srv := serveBody(t, "application/rss+xml", body)
	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "", discardLogger())

	articles, err := adapter.Fetch(context.Background(), types.FeedSource{Name: "Fallback", URL: srv.URL}, 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Fallback", articles[0].Source)
	assert.Equal(t, types.UnknownPublished, articles[0].PublishedAt)
	assert.Equal(t, "No date & bold", articles[0].Title)
}

func TestFeedAdapter_AtomUpdatedFallback(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Source</title>
  <entry>
    <title>Entry</title>
    <link href="http://example.com/entry"/>
    <updated>2024-03-04T05:06:07Z</updated>
  </entry>
</feed>`
	srv := serveBody(t, "application/atom+xml", body)
	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "", discardLogger())

	articles, err := adapter.Fetch(context.Background(), types.FeedSource{URL: srv.URL}, 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Atom Source", articles[0].Source)
	assert.Equal(t, "http://example.com/entry", articles[0].Link)
	assert.Equal(t, "2024-03-04T05:06:07Z", articles[0].PublishedAt)
}

func TestFeedAdapter_ErrorKinds(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	garbage := serveBody(t, "text/plain", "this is not a feed")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	cases := []struct {
		name   string
		url    string
		client *http.Client
		kind   types.ErrorKind
	}{
		{"http status", notFound.URL, NewHTTPClient(5 * time.Second), types.ErrUnreachable},
		{"not a feed", garbage.URL, NewHTTPClient(5 * time.Second), types.ErrParse},
		{"timeout", slow.URL, NewHTTPClient(100 * time.Millisecond), types.ErrUnreachable},
		{"refused", "http://127.0.0.1:1/feed", NewHTTPClient(time.Second), types.ErrUnreachable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter := NewFeedAdapter(tc.client, "", discardLogger())
			_, err := adapter.Fetch(context.Background(), types.FeedSource{URL: tc.url}, 5)
			require.Error(t, err)

			se, ok := types.AsSourceError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, se.Kind)
		})
	}
}

func TestFeedAdapter_CanceledContext(t *testing.T) {
	srv := serveBody(t, "application/rss+xml", rssFeed("x", 1))
	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Fetch(ctx, types.FeedSource{URL: srv.URL}, 5)
	se, ok := types.AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrCanceled, se.Kind)
}

func TestFeedAdapter_SendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(rssFeed("ua", 1)))
	}))
	defer srv.Close()

	adapter := NewFeedAdapter(NewHTTPClient(5*time.Second), "herald-test/1.0", discardLogger())
	_, err := adapter.Fetch(context.Background(), types.FeedSource{URL: srv.URL}, 1)
	require.NoError(t, err)
	assert.Equal(t, "herald-test/1.0", got)
}

func TestFeedAdapter_RejectsNonPositiveLimit(t *testing.T) {
	adapter := NewFeedAdapter(nil, "", discardLogger())
	_, err := adapter.Fetch(context.Background(), types.FeedSource{URL: "http://unused"}, 0)
	assert.True(t, types.IsValidation(err))
}
