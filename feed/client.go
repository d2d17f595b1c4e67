package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/config"
)

// ErrUpstreamUnavailable marks transport errors, timeouts, non-2xx
// responses and undecodable bodies from the upstream feed. Callers match it
// with errors.Is to decide between failing the request and skipping a run.
var ErrUpstreamUnavailable = errors.New("upstream feed unavailable")

// Source fetches the current set of raw vehicle records.
type Source interface {
	Fetch(ctx context.Context) ([]RawVehicleRecord, error)
}

// Client fetches the list-shaped JSON feed.
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a JSON feed client. The timeout bounds the whole
// request; after it the fetch fails rather than hangs.
func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Fetch performs one upstream GET and decodes the body.
func (c *Client) Fetch(ctx context.Context) ([]RawVehicleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUpstreamUnavailable, resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	var records []RawVehicleRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrUpstreamUnavailable, err)
	}
	return records, nil
}
