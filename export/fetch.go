package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher retrieves the rendered body of a route.
type Fetcher interface {
	Fetch(ctx context.Context, route string) ([]byte, error)
}

// Defaults for NewHTTPFetcher.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 2
	DefaultBackoff = 250 * time.Millisecond
)

// HTTPFetcher fetches routes from a running server.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts after a network error or a
	// 5xx response. Other statuses are not retried.
	Retries int
	Backoff time.Duration
}

// NewHTTPFetcher returns a fetcher for the server at baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{},
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Backoff: DefaultBackoff,
	}
}

// URL returns the absolute URL of route.
func (f *HTTPFetcher) URL(route string) (string, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	u.Path = strings.TrimRight(u.Path, "/") + route
	return u.String(), nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, route string) ([]byte, error) {
	target, err := f.URL(route)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.Backoff * time.Duration(attempt)):
			}
		}
		body, retry, err := f.get(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, bool, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil || ctx.Err() == context.DeadlineExceeded, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}
	return body, false, nil
}
