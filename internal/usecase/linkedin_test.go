package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"compintel/internal/domain"
	"compintel/internal/logging"
	"compintel/internal/normalize"
	"compintel/internal/render"
)

type stubFeed struct {
	posts map[string][]domain.Post
	errs  map[string]error
	calls []string
	days  []time.Time
}

func (s *stubFeed) PostsOn(_ context.Context, companyURL string, day time.Time) ([]domain.Post, error) {
	s.calls = append(s.calls, companyURL)
	s.days = append(s.days, day)
	if err := s.errs[companyURL]; err != nil {
		return nil, err
	}
	return s.posts[companyURL], nil
}

type linkedinFixture struct {
	pipeline *LinkedInPipeline
	feed     *stubFeed
	llm      *stubSummarizer
	notifier *stubNotifier
}

func newTestLinkedIn(t *testing.T, accounts string) *linkedinFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "linkedin_accounts.txt")
	if accounts != "" {
		if err := os.WriteFile(path, []byte(accounts), 0o644); err != nil {
			t.Fatalf("write accounts: %v", err)
		}
	}

	feed := &stubFeed{posts: map[string][]domain.Post{}, errs: map[string]error{}}
	llm := &stubSummarizer{raw: domain.SentinelNothingImportant}
	notifier := &stubNotifier{}

	p := NewLinkedIn(LinkedInDeps{
		AccountsFile: path,
		Feed:         feed,
		Summarizer:   llm,
		Normalizer:   normalize.New(nil),
		Formatter:    render.New("LinkedIn Update", 0),
		Notifier:     notifier,
		PollDelay:    time.Second,
		Logger:       logging.Discard(),
	})
	p.sleep = func(context.Context, time.Duration) {}
	p.now = func() time.Time { return time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC) }

	return &linkedinFixture{pipeline: p, feed: feed, llm: llm, notifier: notifier}
}

const acmeCompanyURL = "https://linkedin.com/company/acme"

func TestLinkedInRunAnalyzesGivenDay(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, acmeCompanyURL+"\n")
	fx.feed.posts[acmeCompanyURL] = []domain.Post{somePost("acme")}
	fx.llm.raw = productJSON

	if err := fx.pipeline.Run(context.Background(), "2025-09-16"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(fx.feed.days) != 1 || fx.feed.days[0].Format("2006-01-02") != "2025-09-16" {
		t.Fatalf("feed days = %v", fx.feed.days)
	}
	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(fx.notifier.notes))
	}
	body := strings.Join(fx.notifier.notes[0].Chunks, "\n")
	if !strings.Contains(body, "*LinkedIn Update: 16 Sep*") {
		t.Fatalf("missing header:\n%s", body)
	}
	if !strings.Contains(body, "*🚀 Product:*") {
		t.Fatalf("missing product section:\n%s", body)
	}
}

func TestLinkedInDefaultsToYesterday(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, acmeCompanyURL+"\n")

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(fx.feed.days) != 1 || fx.feed.days[0].Format("2006-01-02") != "2025-09-16" {
		t.Fatalf("feed days = %v, want yesterday", fx.feed.days)
	}
}

func TestLinkedInQuietDayStillNotifies(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, acmeCompanyURL+"\n")

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if fx.llm.calls != 0 {
		t.Fatal("analyzer should not run without posts")
	}
	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want the quiet-day report", len(fx.notifier.notes))
	}
	body := strings.Join(fx.notifier.notes[0].Chunks, "\n")
	if !strings.Contains(body, "No significant updates today.") {
		t.Fatalf("unexpected quiet-day report:\n%s", body)
	}
}

func TestLinkedInSkipsFailingCompany(t *testing.T) {
	t.Parallel()

	other := "https://linkedin.com/company/bolt"
	fx := newTestLinkedIn(t, acmeCompanyURL+"\n"+other+"\n")
	fx.feed.errs[acmeCompanyURL] = errors.New("scrapin 502")
	fx.feed.posts[other] = []domain.Post{somePost("bolt")}
	fx.llm.raw = productJSON

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if fx.llm.posts != 1 {
		t.Fatalf("analyzer saw %d posts, want only bolt's", fx.llm.posts)
	}
	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(fx.notifier.notes))
	}
}

func TestLinkedInAnalysisFailureReportsQuietDay(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, acmeCompanyURL+"\n")
	fx.feed.posts[acmeCompanyURL] = []domain.Post{somePost("acme")}
	fx.llm.err = errors.New("model overloaded")

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("analysis failure must not fail the run: %v", err)
	}

	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want the quiet-day report", len(fx.notifier.notes))
	}
	if !strings.Contains(fx.notifier.notes[0].Chunks[0], "No significant updates today.") {
		t.Fatalf("unexpected report:\n%s", fx.notifier.notes[0].Chunks[0])
	}
}

func TestLinkedInRejectsBadDate(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, acmeCompanyURL+"\n")

	if err := fx.pipeline.Run(context.Background(), "16-09-2025"); err == nil {
		t.Fatal("malformed date must fail the run")
	}
	if len(fx.feed.calls) != 0 {
		t.Fatal("nothing should be fetched for a malformed date")
	}
}

func TestLinkedInMissingAccountsFile(t *testing.T) {
	t.Parallel()

	fx := newTestLinkedIn(t, "")

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("missing file must not fail the run: %v", err)
	}
	if len(fx.feed.calls) != 0 || len(fx.notifier.notes) != 0 {
		t.Fatal("nothing to monitor means no fetches and no notifications")
	}
}
