// Package flights serves the read-only flight board. It shares nothing
// with the relay core except the HTTP transport.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Flight is one arrivals/departures row as the upstream board exposes it.
type Flight struct {
	Number      string `json:"number"`
	Airline     string `json:"airline"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Scheduled   string `json:"scheduled"`
	Status      string `json:"status"`
	Gate        string `json:"gate,omitempty"`
}

// Client fetches the board and caches it for the configured TTL so a
// burst of UI refreshes hits upstream once.
type Client struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client

	mu        sync.Mutex
	cached    []Flight
	fetchedAt time.Time
}

func NewClient(url string, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		url:        url,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Board returns the cached flight list, refreshing it when stale. A
// failed refresh serves the stale copy rather than an error when one
// exists.
func (c *Client) Board(ctx context.Context) ([]Flight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.fetchedAt) < c.ttl && c.cached != nil {
		return c.cached, nil
	}
	fresh, err := c.fetch(ctx)
	if err != nil {
		if c.cached != nil {
			log.Warn().Err(err).Str("module", "flights").Msg("refresh failed, serving stale board")
			return c.cached, nil
		}
		return nil, err
	}
	c.cached = fresh
	c.fetchedAt = time.Now()
	return c.cached, nil
}

func (c *Client) fetch(ctx context.Context) ([]Flight, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight board request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("flight board returned %d: %s", resp.StatusCode, b)
	}
	var flights []Flight
	if err := json.NewDecoder(resp.Body).Decode(&flights); err != nil {
		return nil, fmt.Errorf("failed to decode flight board: %w", err)
	}
	return flights, nil
}
