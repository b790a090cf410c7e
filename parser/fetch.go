package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// userAgent identifies the harvester on outbound requests.
const userAgent = "blogd-parser/1.0 (+https://github.com/ovoloshin/blogd)"

// newFetcher returns a fetch function that performs one GET per call. The
// HTTP client is scoped to the call: created before the request and its
// connections released afterward, success or failure, so nothing leaks
// across runs.
func newFetcher(timeout time.Duration) fetchFunc {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return func(ctx context.Context, url string) ([]byte, error) {
		client := &http.Client{Timeout: timeout}
		defer client.CloseIdleConnections()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, nil
	}
}
