package sources

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"herald/internal/types"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// setBrowserHeaders makes requests look like a regular browser visit. Some
// news sites refuse the default Go user agent. Accept-Encoding is left to
// the transport so gzip bodies are decoded transparently.
func setBrowserHeaders(req *http.Request, userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
}

// classifyTransportError maps network level failures to a SourceError.
// It returns nil when err is not a transport failure.
func classifyTransportError(rawURL string, err error) *types.SourceError {
	if errors.Is(err, context.Canceled) {
		return types.NewSourceError(types.ErrCanceled, rawURL, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewSourceError(types.ErrUnreachable, rawURL, err).WithDetail("timeout", true)
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return types.NewSourceError(types.ErrUnreachable, rawURL, err).WithDetail("status", httpErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewSourceError(types.ErrUnreachable, rawURL, err).WithDetail("timeout", true)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return types.NewSourceError(types.ErrUnreachable, rawURL, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return types.NewSourceError(types.ErrUnreachable, rawURL, err)
	}

	return nil
}

func statusError(rawURL string, resp *http.Response) *types.SourceError {
	return types.NewSourceError(types.ErrUnreachable, rawURL, errors.New("unexpected status: "+resp.Status)).
		WithDetail("status", resp.StatusCode)
}
