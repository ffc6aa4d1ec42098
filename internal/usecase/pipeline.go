// Package usecase orchestrates the monitoring workflows: rotation scans,
// whole-roster sweeps, LinkedIn company checks, the morning digest, and
// user-id cache warm-up. External failures downgrade to logged warnings
// wherever possible; a cycle that finds nothing is a normal outcome, not
// an error.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"compintel/internal/domain"
	"compintel/internal/ledger"
	"compintel/internal/logging"
	"compintel/internal/normalize"
	"compintel/internal/ports"
	"compintel/internal/render"
	"compintel/internal/rotation"
)

// PipelineDeps wires the monitoring components into the scan use cases.
type PipelineDeps struct {
	Rotator    *rotation.Rotator
	Source     ports.PostSource
	Summarizer ports.Summarizer
	Normalizer *normalize.Normalizer
	Formatter  *render.Formatter
	Notifier   ports.Notifier
	Ledger     *ledger.Ledger
	Window     time.Duration
	PollDelay  time.Duration
	Logger     *slog.Logger
}

// Pipeline implements the post-monitoring workflow: fetch recent posts
// for a set of accounts, have the model extract competitive
// intelligence, and deliver the rendered result.
type Pipeline struct {
	rotator    *rotation.Rotator
	source     ports.PostSource
	summarizer ports.Summarizer
	normalizer *normalize.Normalizer
	formatter  *render.Formatter
	notifier   ports.Notifier
	ledger     *ledger.Ledger
	window     time.Duration
	pollDelay  time.Duration
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(context.Context, time.Duration)
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Window <= 0 {
		deps.Window = 24 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Pipeline{
		rotator:    deps.Rotator,
		source:     deps.Source,
		summarizer: deps.Summarizer,
		normalizer: deps.Normalizer,
		formatter:  deps.Formatter,
		notifier:   deps.Notifier,
		ledger:     deps.Ledger,
		window:     deps.Window,
		pollDelay:  deps.PollDelay,
		logger:     deps.Logger,
		now:        time.Now,
		sleep:      wait,
	}
}

// ScanBatch processes one rotation batch end to end: fetch posts,
// analyze, notify, and record the findings in the daily ledger. Provider
// and delivery failures are logged and treated as "no data this cycle";
// only context cancellation aborts the run.
func (p *Pipeline) ScanBatch(ctx context.Context) error {
	runID := newRunID()
	run := p.logger.With("run", runID)

	batch := p.rotator.NextBatch()
	if len(batch) == 0 {
		run.Info("no accounts to scan this cycle")
		return nil
	}
	info := p.rotator.Info()
	run.Info("starting scan cycle", "accounts", len(batch), "rotation", info)

	posts := p.collect(ctx, run, batch)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(posts) == 0 {
		run.Info("no recent posts from this batch")
		return nil
	}

	day := p.now()
	raw, err := p.summarizer.Analyze(ctx, posts, day)
	if err != nil {
		run.Warn("analysis failed, treating as no data this cycle", "error", err)
		return ctx.Err()
	}

	res := p.normalizer.Normalize(raw)
	body, headlines := p.renderResult(res, day)
	if body == "" {
		run.Info("nothing noteworthy this cycle", "strategy", res.Kind.String())
		return nil
	}

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, p.formatter.Notification(body, day)); err != nil {
			run.Warn("could not deliver notification", "error", err)
		}
	}
	if p.ledger != nil {
		p.ledger.Add(headlines, fmt.Sprintf("%s [run %s]", info, runID))
	}
	run.Info("scan cycle complete", "strategy", res.Kind.String())
	return ctx.Err()
}

// FullScan walks the entire roster once with long pauses between
// accounts, sending an immediate notification per account with findings
// and a combined wrap-up at the end. Unlike ScanBatch it does not touch
// the rotation cursor or the daily ledger.
func (p *Pipeline) FullScan(ctx context.Context) error {
	run := p.logger.With("run", newRunID())

	roster := p.rotator.Roster()
	run.Info("starting full scan", "accounts", len(roster))

	delay := fullScanDelay(len(roster))
	day := p.now()
	var found []string
	for i, account := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			p.sleep(ctx, delay)
		}
		headlines := p.scanAccount(ctx, run, account, i+1, len(roster), day)
		if headlines != "" {
			found = append(found, headlines)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var summary string
	if len(found) == 0 {
		summary = "📋 *Full Scan Complete*\n\nNo significant competitive intelligence found today across all monitored accounts."
	} else {
		summary = fmt.Sprintf("📋 *Full Scan Summary*\n\n%s", strings.Join(found, "\n"))
	}
	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, p.formatter.Notification(summary, day)); err != nil {
			run.Warn("could not deliver full scan summary", "error", err)
		}
	}
	run.Info("full scan complete", "with_findings", len(found), "accounts", len(roster))
	return ctx.Err()
}

// OnDemand runs an immediate whole-roster check and returns the rendered
// findings. An empty string with a nil error means nothing noteworthy
// turned up.
func (p *Pipeline) OnDemand(ctx context.Context) (string, error) {
	run := p.logger.With("run", newRunID())

	roster := p.rotator.Roster()
	run.Info("starting on-demand analysis", "accounts", len(roster))

	posts := p.collect(ctx, run, roster)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "", nil
	}

	raw, err := p.summarizer.Analyze(ctx, posts, p.now())
	if err != nil {
		return "", fmt.Errorf("analyze posts: %w", err)
	}

	res := p.normalizer.Normalize(raw)
	switch res.Kind {
	case normalize.KindJSON, normalize.KindMarkdown:
		return p.formatter.Sections(res.Items), nil
	case normalize.KindHeuristic, normalize.KindRawFallback:
		return res.Text, nil
	default:
		return "", nil
	}
}

// collect fetches recent posts for each account, pacing requests and
// skipping accounts that fail this cycle.
func (p *Pipeline) collect(ctx context.Context, logger *slog.Logger, accounts []domain.Account) []domain.Post {
	var posts []domain.Post
	for i, account := range accounts {
		if ctx.Err() != nil {
			return posts
		}
		if i > 0 {
			p.sleep(ctx, p.pollDelay)
		}
		fetched, err := p.source.RecentPosts(ctx, account, p.window)
		switch {
		case errors.Is(err, ports.ErrRateLimited):
			logger.Warn("provider rate limit hit, skipping account this cycle", "handle", account.Handle)
			continue
		case errors.Is(err, ports.ErrUnavailable):
			logger.Warn("account unavailable, skipping this cycle", "handle", account.Handle)
			continue
		case err != nil:
			logger.Warn("could not fetch posts", "handle", account.Handle, "error", err)
			continue
		}
		logger.Debug("fetched posts", "handle", account.Handle, "count", len(fetched))
		posts = append(posts, fetched...)
	}
	return posts
}

// scanAccount runs one account through fetch, analysis, and immediate
// delivery. It returns the headline lines worth carrying into the final
// summary, empty when the account produced nothing.
func (p *Pipeline) scanAccount(ctx context.Context, logger *slog.Logger, account domain.Account, pos, total int, day time.Time) string {
	posts := p.collect(ctx, logger, []domain.Account{account})
	if len(posts) == 0 {
		logger.Debug("no recent posts", "handle", account.Handle, "progress", fmt.Sprintf("%d/%d", pos, total))
		return ""
	}

	raw, err := p.summarizer.Analyze(ctx, posts, day)
	if err != nil {
		logger.Warn("analysis failed, skipping account", "handle", account.Handle, "error", err)
		return ""
	}

	res := p.normalizer.Normalize(raw)
	body, headlines := p.renderResult(res, day)
	if body == "" {
		logger.Debug("no significant news", "handle", account.Handle)
		return ""
	}

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, p.formatter.Notification(body, day)); err != nil {
			logger.Warn("could not deliver account findings", "handle", account.Handle, "error", err)
		}
	}
	logger.Info("sent account findings", "handle", account.Handle, "progress", fmt.Sprintf("%d/%d", pos, total))
	return headlines
}

// renderResult turns a normalizer outcome into the notification body and
// the headline lines the daily ledger keeps. Structured results render
// as category sections; text results pass through under the header.
func (p *Pipeline) renderResult(res normalize.Result, day time.Time) (body, headlines string) {
	switch res.Kind {
	case normalize.KindJSON, normalize.KindMarkdown:
		sections := p.formatter.Sections(res.Items)
		if sections == "" {
			return "", ""
		}
		return p.formatter.Digest(res.Items, day), sections
	case normalize.KindHeuristic, normalize.KindRawFallback:
		return p.formatter.Freeform(res.Text, day), res.Text
	default:
		return "", ""
	}
}

// fullScanDelay spaces whole-roster sweeps far enough apart to stay
// inside the provider's 15-minute rate windows.
func fullScanDelay(accounts int) time.Duration {
	if accounts > 10 {
		return 60 * time.Second
	}
	return 30 * time.Second
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// newRunID tags one pipeline invocation for log correlation.
func newRunID() string {
	return uuid.NewString()[:8]
}
