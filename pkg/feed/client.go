// Package feed downloads the operator's static GTFS archive and reduces it to
// the stop_times rows of the tracked trips.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultURL is the Lyon TCL theoretical timetable.
const DefaultURL = "https://download.data.grandlyon.com/files/rdata/tcl_sytral.tcltheorique/GTFS_TCL.ZIP"

const maxAttempts = 3

// Client downloads GTFS archives.
type Client struct {
	httpClient *http.Client
	retryDelay time.Duration
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		retryDelay: time.Second,
	}
}

// getWithRetries attempts the request up to 3 times on transport errors and
// 502/503/504 responses, backing off linearly.
func (c *Client) getWithRetries(ctx context.Context, url, user, pass string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "nextbus/1.0")
		if user != "" {
			req.SetBasicAuth(user, pass)
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusGatewayTimeout:
			resp.Body.Close()
			lastErr = fmt.Errorf("transient status code: %d", resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt < maxAttempts-1 {
			log.Warn("feed download failed, retrying", "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * c.retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

// Download fetches the archive at url. user may be empty for feeds without
// authentication.
func (c *Client) Download(ctx context.Context, url, user, pass string) ([]byte, error) {
	resp, err := c.getWithRetries(ctx, url, user, pass)
	if err != nil {
		return nil, fmt.Errorf("failed to download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}
	return data, nil
}
