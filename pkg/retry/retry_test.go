package retry

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestDoRetriesTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503, Status: "503 Service Unavailable"}
		}
		return nil
	}, BaseDelay(time.Millisecond), MaxDelay(5*time.Millisecond))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoFailsFastOnPermanent(t *testing.T) {
	t.Parallel()

	calls := 0
	wantErr := errors.New("bad request")
	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, BaseDelay(time.Millisecond))

	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoStopsAtAttemptCap(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return &StatusError{Code: 429}
	}, Attempts(3), BaseDelay(time.Millisecond), MaxDelay(2*time.Millisecond))

	var se *StatusError
	if !errors.As(err, &se) || se.Code != 429 {
		t.Fatalf("error = %v, want the rate-limit status", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return &StatusError{Code: 503}
	}, BaseDelay(time.Millisecond))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoCustomClassifier(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("flaky")
	}, Attempts(2), BaseDelay(time.Millisecond), RetryIf(func(error) bool { return true }))

	if err == nil {
		t.Fatal("expected the final error")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestTransient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &StatusError{Code: 429}, true},
		{"bad gateway", &StatusError{Code: 502}, true},
		{"unavailable", &StatusError{Code: 503}, true},
		{"gateway timeout", &StatusError{Code: 504}, true},
		{"server error", &StatusError{Code: 500}, false},
		{"not found", &StatusError{Code: 404}, false},
		{"unauthorized", &StatusError{Code: 401}, false},
		{"wrapped status", wrap(&StatusError{Code: 429}), true},
		{"url error", &url.Error{Op: "Get", URL: "http://example.test", Err: errors.New("connection refused")}, true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		if got := Transient(tc.err); got != tc.want {
			t.Fatalf("%s: Transient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func wrap(err error) error {
	return errors.Join(errors.New("request failed"), err)
}
