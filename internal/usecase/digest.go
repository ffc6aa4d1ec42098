package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"compintel/internal/domain"
	"compintel/internal/ledger"
	"compintel/internal/logging"
	"compintel/internal/ports"
	"compintel/internal/render"
)

// DigestDeps wires the morning-summary workflow.
type DigestDeps struct {
	Ledger     *ledger.Ledger
	Formatter  *render.Formatter
	Notifier   ports.Notifier
	RetainDays int
	Logger     *slog.Logger
}

// DigestPipeline replays a day's accumulated findings as one morning
// message and prunes expired ledger days afterwards.
type DigestPipeline struct {
	ledger     *ledger.Ledger
	formatter  *render.Formatter
	notifier   ports.Notifier
	retainDays int
	logger     *slog.Logger
}

// NewDigest constructs the morning-summary pipeline.
func NewDigest(deps DigestDeps) *DigestPipeline {
	if deps.RetainDays <= 0 {
		deps.RetainDays = 7
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &DigestPipeline{
		ledger:     deps.Ledger,
		formatter:  deps.Formatter,
		notifier:   deps.Notifier,
		retainDays: deps.RetainDays,
		logger:     deps.Logger,
	}
}

// Due reports whether the daily digest window is open right now.
func (p *DigestPipeline) Due() bool {
	return p.ledger.ShouldEmitDailyDigest()
}

// Run sends the summary for date (yesterday when empty, otherwise
// YYYY-MM-DD). A quiet day still gets a short confirmation so the
// channel knows monitoring is alive. Expired ledger days are pruned on
// the way out.
func (p *DigestPipeline) Run(ctx context.Context, date string) error {
	if date == "" {
		date = p.ledger.Yesterday()
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
	}
	run := p.logger.With("run", newRunID())

	summary := p.ledger.Summary(date)
	var text string
	if summary == domain.SentinelNothingImportant {
		run.Info("no findings accumulated", "date", date)
		text = fmt.Sprintf("📭 No significant competitive intelligence detected on %s.\n\n_Daily monitoring system is active and running._", date)
	} else {
		items := len(strings.Split(summary, "\n"))
		text = fmt.Sprintf("*Yesterday's Competitive Intelligence Summary (%s)*\n\n%s\n\n_Monitoring system processed %d intelligence items._", date, summary, items)
	}

	note := domain.Notification{
		Headline: fmt.Sprintf("📰 Daily Intelligence Summary - %s", date),
		Chunks:   p.formatter.Chunks(text),
	}
	if err := p.notifier.Publish(ctx, note); err != nil {
		run.Warn("could not deliver daily digest", "error", err)
	} else {
		run.Info("daily digest sent", "date", date)
	}

	p.ledger.Prune(p.retainDays)
	return ctx.Err()
}
