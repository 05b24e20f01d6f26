// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats fetches the visitor count shown in the status bar.
//
// The analytics service is queried with a share token and a time range.
// Different deployments expose the count under different field names, so
// the response is probed for the first numeric field among a known set.
// When the service is unreachable the package returns a randomized
// placeholder so the status bar always has a number to render.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the timeout for stats requests.
	DefaultTimeout = 10 * time.Second

	// DefaultRange is how far back the visitor query reaches.
	DefaultRange = 24 * time.Hour

	// Placeholder count bounds used when the service is unavailable.
	placeholderMin  = 1000
	placeholderSpan = 1000
)

// countKeys are probed in order for the visitor number.
var countKeys = []string{"visitors", "visitor_count", "uv", "visits", "pageviews", "count", "total"}

// =============================================================================
// CLIENT
// =============================================================================

// Client queries the analytics service for a visitor count.
type Client struct {
	endpoint   string
	shareToken string
	window     time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient creates a stats client. The endpoint is the full stats URL;
// the share token authenticates the query.
func NewClient(endpoint, shareToken string) *Client {
	return &Client{
		endpoint:   endpoint,
		shareToken: shareToken,
		window:     DefaultRange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// IsConfigured returns true if an endpoint is set.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// VisitorCount returns the visitor count for the configured time window.
// It never fails: when the service is unreachable or the response is not
// understood, a randomized placeholder count is returned with ok=false.
func (c *Client) VisitorCount(ctx context.Context) (count int, ok bool) {
	n, err := c.fetch(ctx)
	if err != nil {
		return c.placeholder(), false
	}
	return n, true
}

// fetch performs the stats request and extracts the count.
func (c *Client) fetch(ctx context.Context) (int, error) {
	if !c.IsConfigured() {
		return 0, fmt.Errorf("stats endpoint not configured")
	}

	end := c.now()
	start := end.Add(-c.window)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("invalid stats endpoint: %w", err)
	}
	q := u.Query()
	q.Set("startAt", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endAt", strconv.FormatInt(end.UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.shareToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.shareToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("stats request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("stats request failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return 0, fmt.Errorf("failed to read stats response: %w", err)
	}

	return extractCount(body)
}

// extractCount probes the response for the first recognized numeric field.
// Both flat numbers and {"value": n} wrappers are accepted.
func extractCount(body []byte) (int, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return 0, fmt.Errorf("failed to decode stats response: %w", err)
	}

	for _, key := range countKeys {
		raw, present := fields[key]
		if !present {
			continue
		}

		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return int(n), nil
		}

		var wrapped struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil {
			return int(wrapped.Value), nil
		}
	}

	return 0, fmt.Errorf("no visitor count field in stats response")
}

// placeholder returns a randomized stand-in count.
func (c *Client) placeholder() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return placeholderMin + c.rng.Intn(placeholderSpan)
}
