package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"compintel/internal/domain"
	"compintel/internal/logging"
	"compintel/internal/normalize"
	"compintel/internal/ports"
	"compintel/internal/render"
)

// LinkedInDeps wires the company-page monitoring workflow.
type LinkedInDeps struct {
	AccountsFile string
	Feed         ports.CompanyFeed
	Summarizer   ports.Summarizer
	Normalizer   *normalize.Normalizer
	Formatter    *render.Formatter
	Notifier     ports.Notifier
	PollDelay    time.Duration
	Logger       *slog.Logger
}

// LinkedInPipeline checks competitor company pages for a single calendar
// day. Company pages post rarely, so this runs once a day and always
// reports to the channel, quiet days included.
type LinkedInPipeline struct {
	accountsFile string
	feed         ports.CompanyFeed
	summarizer   ports.Summarizer
	normalizer   *normalize.Normalizer
	formatter    *render.Formatter
	notifier     ports.Notifier
	pollDelay    time.Duration
	logger       *slog.Logger
	now          func() time.Time
	sleep        func(context.Context, time.Duration)
}

// NewLinkedIn constructs the company-page pipeline.
func NewLinkedIn(deps LinkedInDeps) *LinkedInPipeline {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &LinkedInPipeline{
		accountsFile: deps.AccountsFile,
		feed:         deps.Feed,
		summarizer:   deps.Summarizer,
		normalizer:   deps.Normalizer,
		formatter:    deps.Formatter,
		notifier:     deps.Notifier,
		pollDelay:    deps.PollDelay,
		logger:       deps.Logger,
		now:          time.Now,
		sleep:        wait,
	}
}

// Run analyzes every monitored company page for one day, yesterday
// unless dateOverride (YYYY-MM-DD) says otherwise. A malformed override
// is the only hard failure; fetch and analysis problems degrade to a
// quiet-day report.
func (p *LinkedInPipeline) Run(ctx context.Context, dateOverride string) error {
	day, err := p.targetDay(dateOverride)
	if err != nil {
		return err
	}
	run := p.logger.With("run", newRunID())

	companies := p.companies()
	if len(companies) == 0 {
		run.Info("no linkedin company pages to monitor")
		return nil
	}
	run.Info("starting linkedin analysis", "date", day.Format("2006-01-02"), "companies", len(companies))

	var posts []domain.Post
	for i, companyURL := range companies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			p.sleep(ctx, p.pollDelay)
		}
		fetched, err := p.feed.PostsOn(ctx, companyURL, day)
		if err != nil {
			run.Warn("could not fetch company activity", "company", companyURL, "error", err)
			continue
		}
		run.Debug("fetched company posts", "company", companyURL, "count", len(fetched))
		posts = append(posts, fetched...)
	}

	var res normalize.Result
	if len(posts) > 0 {
		raw, err := p.summarizer.Analyze(ctx, posts, day)
		if err != nil {
			run.Warn("analysis failed, reporting a quiet day", "error", err)
		} else {
			res = p.normalizer.Normalize(raw)
		}
	}

	var body string
	switch res.Kind {
	case normalize.KindJSON, normalize.KindMarkdown:
		body = p.formatter.Digest(res.Items, day)
	case normalize.KindHeuristic, normalize.KindRawFallback:
		body = p.formatter.Freeform(res.Text, day)
	default:
		body = p.formatter.Digest(domain.CategoryMap{}, day)
	}

	if err := p.notifier.Publish(ctx, p.formatter.Notification(body, day)); err != nil {
		run.Warn("could not deliver notification", "error", err)
	}
	run.Info("linkedin analysis complete", "posts", len(posts), "strategy", res.Kind.String())
	return ctx.Err()
}

func (p *LinkedInPipeline) targetDay(override string) (time.Time, error) {
	if override == "" {
		return p.now().AddDate(0, 0, -1), nil
	}
	day, err := time.Parse("2006-01-02", override)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", override, err)
	}
	return day, nil
}

// companies reads one LinkedIn company URL per line. A missing file
// means nothing to monitor, not a failed run.
func (p *LinkedInPipeline) companies() []string {
	raw, err := os.ReadFile(p.accountsFile)
	if err != nil {
		p.logger.Warn("linkedin accounts file unreadable", "path", p.accountsFile, "error", err)
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
