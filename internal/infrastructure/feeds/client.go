// Package feeds holds the HTTP clients for the upstream ERP endpoints the
// dashboards ingest from: the invoice feed, the person enrichment feed and
// the write-off (baixa) submission endpoint.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cobranca/backend/internal/infrastructure/config"
)

// maxResponseSize limits feed response bodies to prevent memory exhaustion
const maxResponseSize = 32 * 1024 * 1024 // 32MB; full-history invoice feeds get large

// Feed transport errors
var (
	ErrFeedUnavailable   = errors.New("feed unavailable")
	ErrFeedRequestFailed = errors.New("feed request failed")
)

// client is the shared HTTP plumbing for every feed endpoint
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newClient(baseURL string, cfg config.FeedsConfig) client {
	return client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// do sends the request and returns the raw body. Connection failures map to
// ErrFeedUnavailable, HTTP >= 400 to ErrFeedRequestFailed.
func (c *client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("feeds: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("feeds: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrFeedRequestFailed, resp.StatusCode, snippet(payload))
	}
	return payload, nil
}

// snippet trims an error body for inclusion in an error message
func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
