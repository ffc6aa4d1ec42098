// Package twitterapi fetches recent posts through the twitterapi.io
// aggregation service. The service has no server-side time filter, so the
// recency cut happens client side after decoding.
package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"compintel/internal/domain"
	"compintel/internal/ports"
	"compintel/pkg/retry"
)

// maxPageSize is the largest page the service returns per request.
const maxPageSize = 20

// Client reads a user's latest posts from twitterapi.io.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.PostSource = (*Client)(nil)

// New creates a twitterapi.io client.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

type post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
	IsReply   bool   `json:"isReply"`
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Tweets []post `json:"tweets"`
	} `json:"data"`
}

// RecentPosts returns the account's posts newer than now-window. A 429 from
// the service maps to ports.ErrRateLimited so callers can skip the account
// until the next cycle instead of retrying.
func (c *Client) RecentPosts(ctx context.Context, account domain.Account, window time.Duration) ([]domain.Post, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("twitterapi client misconfigured")
	}

	q := url.Values{}
	q.Set("userName", account.Handle)
	q.Set("count", strconv.Itoa(maxPageSize))

	var env envelope
	if err := c.get(ctx, "/twitter/user/last_tweets", q, &env); err != nil {
		return nil, fmt.Errorf("fetch posts for %s: %w", account.Handle, err)
	}
	if env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("twitterapi error for %s: %s", account.Handle, msg)
	}

	cutoff := c.now().Add(-window)
	out := make([]domain.Post, 0, len(env.Data.Tweets))
	for _, t := range env.Data.Tweets {
		when, ok := parseTime(t.CreatedAt)
		if ok && when.Before(cutoff) {
			continue
		}
		link := t.URL
		if link == "" {
			link = fmt.Sprintf("https://twitter.com/%s/status/%s", account.Handle, t.ID)
		}
		out = append(out, domain.Post{
			ID:        t.ID,
			Text:      t.Text,
			Author:    account.Handle,
			Company:   account.Company,
			URL:       link,
			CreatedAt: when,
			Reply:     t.IsReply,
		})
	}

	c.debug("fetched posts", "handle", account.Handle, "count", len(out))
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
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

// parseTime accepts the two timestamp shapes the service has been seen to
// emit. A post with an unreadable timestamp is kept rather than dropped, so
// ok=false means "do not filter on this".
func parseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RubyDate, raw); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
