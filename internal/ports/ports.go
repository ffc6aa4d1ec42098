package ports

import (
	"context"
	"errors"
	"time"

	"compintel/internal/domain"
)

// ErrRateLimited marks a provider 429. Callers skip the account or cycle
// instead of retrying.
var ErrRateLimited = errors.New("rate limited")

// ErrUnavailable marks a lookup that failed for the current run. Callers
// proceed without the result.
var ErrUnavailable = errors.New("temporarily unavailable")

// PostSource pulls recent posts for a monitored account.
type PostSource interface {
	RecentPosts(ctx context.Context, account domain.Account, window time.Duration) ([]domain.Post, error)
}

// UserLookup resolves a handle to the provider's numeric user id.
type UserLookup interface {
	LookupID(ctx context.Context, handle string) (string, error)
}

// CompanyFeed pulls a company page's posts for a single calendar day.
type CompanyFeed interface {
	PostsOn(ctx context.Context, companyURL string, day time.Time) ([]domain.Post, error)
}

// Summarizer turns raw posts into an intelligence write-up via an LLM.
type Summarizer interface {
	Analyze(ctx context.Context, posts []domain.Post, day time.Time) (string, error)
}

// Notifier delivers rendered digests to the configured channel.
type Notifier interface {
	Publish(ctx context.Context, note domain.Notification) error
}

// Scheduler controls when scan cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
