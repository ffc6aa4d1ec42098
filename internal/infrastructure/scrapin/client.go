// Package scrapin fetches company LinkedIn activity through the ScrapIn
// enrichment API. ScrapIn returns a company's recent posts in one page with
// no date filter, so the single-day cut happens client side.
package scrapin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"compintel/internal/domain"
	"compintel/internal/ports"
	"compintel/pkg/retry"
)

// Client reads company post feeds from ScrapIn.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.CompanyFeed = (*Client)(nil)

// New creates a ScrapIn client.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type activity struct {
	Text         string `json:"text"`
	ActivityURL  string `json:"activityUrl"`
	ActivityDate string `json:"activityDate"`
}

type envelope struct {
	Success bool       `json:"success"`
	Posts   []activity `json:"posts"`
}

// PostsOn returns the company's posts published on the given calendar day,
// UTC. Transient upstream failures are retried before giving up.
func (c *Client) PostsOn(ctx context.Context, companyURL string, day time.Time) ([]domain.Post, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("scrapin client misconfigured")
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("linkedInUrl", companyURL)

	var env envelope
	op := func() error {
		return c.get(ctx, "/v1/enrichment/companies/activities/posts", q, &env)
	}
	if err := retry.Do(ctx, op); err != nil {
		return nil, fmt.Errorf("fetch activity for %s: %w", companyURL, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("scrapin request failed for %s", companyURL)
	}

	company := CompanyName(companyURL)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	out := make([]domain.Post, 0, len(env.Posts))
	for _, p := range env.Posts {
		when, err := time.Parse(time.RFC3339, p.ActivityDate)
		if err != nil {
			c.debug("skipping post with unreadable date", "company", company, "date", p.ActivityDate)
			continue
		}
		if when.Before(start) || !when.Before(end) {
			continue
		}
		out = append(out, domain.Post{
			Text:      p.Text,
			Company:   company,
			URL:       p.ActivityURL,
			CreatedAt: when,
		})
	}

	c.debug("fetched activity", "company", company, "count", len(out))
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
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

// CompanyName derives a display name from a LinkedIn company URL: the path
// segment after "company", hyphen-separated words each capitalized, so
// "https://linkedin.com/company/decagon-ai/" becomes "Decagon-Ai".
func CompanyName(companyURL string) string {
	parts := strings.Split(strings.Trim(companyURL, "/"), "/")
	for i, part := range parts {
		if part == "company" && i+1 < len(parts) {
			return titleCase(parts[i+1])
		}
	}
	return "Unknown Company"
}

// titleCase upper-cases the first letter of every letter run and lower-cases
// the rest, matching how the roster slugs are meant to read.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
