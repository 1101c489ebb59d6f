// Package wikipedia implements the external fallback lookup against the
// Wikipedia REST summary API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL points at the Portuguese Wikipedia, matching the
	// responder's default reply language.
	DefaultBaseURL = "https://pt.wikipedia.org"

	// DefaultTimeout bounds the whole lookup. The pipeline must never
	// block on the network beyond this.
	DefaultTimeout = 5 * time.Second
)

// Client queries the REST summary endpoint. Lookups are rate limited to
// stay polite to the public API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Wikipedia instance, e.g. for another language
// edition or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout overrides the lookup timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a summary lookup client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		// Burst a few lookups, then hold to one per second.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type summaryResponse struct {
	Extract string `json:"extract"`
}

// Lookup returns the summary extract for a topic. Any failure (timeout,
// non-200 status, unparsable body, empty extract) returns an error; the
// caller treats every error as a miss.
func (c *Client) Lookup(ctx context.Context, topic string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read summary body: %w", err)
	}

	var summary summaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return "", fmt.Errorf("failed to parse summary body: %w", err)
	}
	if summary.Extract == "" {
		return "", fmt.Errorf("summary has no extract for %q", topic)
	}
	return summary.Extract, nil
}
