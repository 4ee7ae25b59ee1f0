// Package feed fetches and parses bullion dealer broadcast feeds.
//
// Every vendor publishes newline-delimited plain text (sometimes inside an
// XML envelope, which the parsers ignore and treat as raw lines). The package
// provides a thin HTTP client for fetching the raw text and one named parsing
// strategy per feed shape; which strategy applies to which vendor is decided
// by configuration, not here.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrHTTP wraps a non-2xx response from a vendor endpoint.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Client fetches raw broadcast text from vendor endpoints. It applies the
// headers the broadcast servers expect and a bounded timeout; retry policy
// belongs to the caller.
type Client struct {
	http *http.Client
}

// NewClient creates a feed client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchText GETs the given URL and returns the raw response body as text.
// A transport failure or a non-2xx status is an error; parsing concerns are
// left entirely to the caller.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, */*; q=0.01")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(body), 200),
		}
	}

	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
