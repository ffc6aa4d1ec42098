package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"compintel/internal/ledger"
	"compintel/internal/logging"
	"compintel/internal/render"
)

type digestFixture struct {
	path     string
	ledger   *ledger.Ledger
	pipeline *DigestPipeline
	notifier *stubNotifier
}

func newTestDigest(t *testing.T) *digestFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.json")
	led := ledger.New(path, time.UTC, 7, 30, nil)
	notifier := &stubNotifier{}

	p := NewDigest(DigestDeps{
		Ledger:     led,
		Formatter:  render.New("Competitor Intelligence Update", 0),
		Notifier:   notifier,
		RetainDays: 7,
		Logger:     logging.Discard(),
	})

	return &digestFixture{path: path, ledger: led, pipeline: p, notifier: notifier}
}

func seedLedger(t *testing.T, path string, days map[string][]ledger.Entry) {
	t.Helper()
	raw, err := json.Marshal(days)
	if err != nil {
		t.Fatalf("marshal ledger: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}
}

func utcYesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
}

func TestDigestSendsAccumulatedSummary(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)
	yesterday := utcYesterday()
	seedLedger(t, fx.path, map[string][]ledger.Entry{
		yesterday: {
			{Timestamp: "09:15", Headlines: "• Acme: Launches self-serve tier", RunInfo: "Rotation cycle 1/2"},
			{Timestamp: "12:30", Headlines: "• Acme: Launches self-serve tier\n• Bolt: Hires a new CRO", RunInfo: "Rotation cycle 2/2"},
		},
	})

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(fx.notifier.notes))
	}
	note := fx.notifier.notes[0]
	if note.Headline != "📰 Daily Intelligence Summary - "+yesterday {
		t.Fatalf("headline = %q", note.Headline)
	}
	body := strings.Join(note.Chunks, "\n")
	if !strings.Contains(body, "*Yesterday's Competitive Intelligence Summary ("+yesterday+")*") {
		t.Fatalf("missing summary header:\n%s", body)
	}
	if strings.Count(body, "Launches self-serve tier") != 1 {
		t.Fatalf("repeated findings should be deduplicated:\n%s", body)
	}
	if !strings.Contains(body, "_Monitoring system processed 2 intelligence items._") {
		t.Fatalf("missing item count:\n%s", body)
	}
}

func TestDigestQuietDayStillConfirms(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(fx.notifier.notes) != 1 {
		t.Fatalf("got %d notifications, want the quiet-day confirmation", len(fx.notifier.notes))
	}
	body := strings.Join(fx.notifier.notes[0].Chunks, "\n")
	if !strings.Contains(body, "📭 No significant competitive intelligence detected on "+utcYesterday()) {
		t.Fatalf("unexpected confirmation:\n%s", body)
	}
	if !strings.Contains(body, "_Daily monitoring system is active and running._") {
		t.Fatalf("missing liveness line:\n%s", body)
	}
}

func TestDigestPrunesExpiredDays(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)
	seedLedger(t, fx.path, map[string][]ledger.Entry{
		"2000-01-01":   {{Timestamp: "09:00", Headlines: "• Ancient: history"}},
		utcYesterday(): {{Timestamp: "09:00", Headlines: "• Acme: Fresh news"}},
	})

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := fx.ledger.Days(); got != 1 {
		t.Fatalf("ledger kept %d days, want only the fresh one", got)
	}
}

func TestDigestExplicitDate(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)
	seedLedger(t, fx.path, map[string][]ledger.Entry{
		"2025-03-09": {{Timestamp: "09:00", Headlines: "• Acme: Raised a Series B"}},
	})

	if err := fx.pipeline.Run(context.Background(), "2025-03-09"); err != nil {
		t.Fatalf("run: %v", err)
	}

	body := strings.Join(fx.notifier.notes[0].Chunks, "\n")
	if !strings.Contains(body, "(2025-03-09)") || !strings.Contains(body, "Raised a Series B") {
		t.Fatalf("summary should cover the requested date:\n%s", body)
	}
}

func TestDigestRejectsBadDate(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)

	if err := fx.pipeline.Run(context.Background(), "March 9"); err == nil {
		t.Fatal("malformed date must fail the run")
	}
	if len(fx.notifier.notes) != 0 {
		t.Fatal("nothing should be sent for a malformed date")
	}
}

func TestDigestDeliveryFailureStillPrunes(t *testing.T) {
	t.Parallel()

	fx := newTestDigest(t)
	fx.notifier.err = errors.New("webhook returned 500")
	seedLedger(t, fx.path, map[string][]ledger.Entry{
		"2000-01-01": {{Timestamp: "09:00", Headlines: "• Ancient: history"}},
	})

	if err := fx.pipeline.Run(context.Background(), ""); err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
	if got := fx.ledger.Days(); got != 0 {
		t.Fatalf("ledger kept %d days, want pruned", got)
	}
}
