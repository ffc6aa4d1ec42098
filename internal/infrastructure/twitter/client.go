// Package twitter fetches posts from the official Twitter v2 API. The id
// lookup and the timeline fetch are separate quota buckets upstream, so they
// are separate types here and the resolver is injected.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"compintel/internal/domain"
	"compintel/internal/ports"
	"compintel/pkg/retry"
)

// maxTimelinePosts bounds one timeline page. The monitored accounts post a
// handful of times a day, so one page covers the whole window.
const maxTimelinePosts = 10

// Client reads recent account timelines from the official v2 API.
type Client struct {
	baseURL  string
	bearer   string
	resolver ports.UserLookup
	http     *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.PostSource = (*Client)(nil)

// New creates a v2 timeline client. The resolver turns handles into user ids
// and is expected to cache aggressively.
func New(baseURL, bearer string, resolver ports.UserLookup, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		bearer:   bearer,
		resolver: resolver,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
}

// RecentPosts returns the account's posts newer than now-window, retweets
// excluded server side.
func (c *Client) RecentPosts(ctx context.Context, account domain.Account, window time.Duration) ([]domain.Post, error) {
	if c.bearer == "" {
		return nil, fmt.Errorf("twitter client misconfigured")
	}

	id, err := c.resolver.LookupID(ctx, account.Handle)
	if err != nil {
		return nil, fmt.Errorf("resolve user id for %s: %w", account.Handle, err)
	}

	q := url.Values{}
	q.Set("max_results", fmt.Sprintf("%d", maxTimelinePosts))
	q.Set("start_time", c.now().Add(-window).UTC().Format("2006-01-02T15:04:05Z"))
	q.Set("tweet.fields", "created_at,public_metrics")
	q.Set("exclude", "retweets")

	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?%s", c.baseURL, id, q.Encode())
	if err := get(ctx, c.http, c.bearer, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch timeline for %s: %w", account.Handle, err)
	}

	out := make([]domain.Post, 0, len(resp.Data))
	for _, t := range resp.Data {
		when, _ := time.Parse(time.RFC3339, t.CreatedAt)
		out = append(out, domain.Post{
			ID:        t.ID,
			Text:      t.Text,
			Author:    account.Handle,
			Company:   account.Company,
			URL:       fmt.Sprintf("https://twitter.com/%s/status/%s", account.Handle, t.ID),
			CreatedAt: when,
		})
	}

	c.debug("fetched timeline", "handle", account.Handle, "count", len(out))
	return out, nil
}

func get(ctx context.Context, client *http.Client, bearer, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		_ = resp.Body.Close()
		return ports.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
