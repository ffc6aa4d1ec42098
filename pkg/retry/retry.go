// Package retry wraps jittered exponential backoff for upstream calls.
// Every collaborator that retries goes through Do so the policy lives in
// one place.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError carries an upstream HTTP status through error classification.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// StatusCode returns the upstream HTTP status code.
func (e *StatusError) StatusCode() int { return e.Code }

type statusCoder interface {
	StatusCode() int
}

// Transient reports whether err is worth retrying: upstream throttling,
// gateway failures, and network timeouts. Anything else fails fast.
func Transient(err error) bool {
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var ue *url.Error
	return errors.As(err, &ue)
}

type settings struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	retryable func(error) bool
}

// Option tunes a single Do call.
type Option func(*settings)

// Attempts caps total tries, the first call included.
func Attempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// BaseDelay sets the first backoff interval.
func BaseDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// MaxDelay caps a single backoff interval.
func MaxDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.maxDelay = d
		}
	}
}

// RetryIf replaces the default Transient classifier.
func RetryIf(fn func(error) bool) Option {
	return func(s *settings) {
		if fn != nil {
			s.retryable = fn
		}
	}
}

// Do runs op, retrying transient failures with jittered exponential backoff.
// Non-transient errors return immediately. Context cancellation stops the
// wait and surfaces ctx.Err().
func Do(ctx context.Context, op func() error, opts ...Option) error {
	s := settings{
		attempts:  3,
		baseDelay: time.Second,
		maxDelay:  60 * time.Second,
		retryable: Transient,
	}
	for _, opt := range opts {
		opt(&s)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.baseDelay
	b.MaxInterval = s.maxDelay
	b.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !s.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.attempts-1)), ctx))
}
