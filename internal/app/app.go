// Package app wires configuration into runnable use cases. Construction
// is cheap and validation is lazy: each use case checks only the
// credentials it actually needs when requested, so e.g. a status report
// runs without any API keys at all.
package app

import (
	"fmt"
	"log/slog"
	"strings"

	"compintel/internal/config"
	"compintel/internal/infrastructure/llm"
	"compintel/internal/infrastructure/scheduler"
	"compintel/internal/infrastructure/scrapin"
	"compintel/internal/infrastructure/slack"
	"compintel/internal/infrastructure/twitter"
	"compintel/internal/infrastructure/twitterapi"
	"compintel/internal/ledger"
	"compintel/internal/logging"
	"compintel/internal/normalize"
	"compintel/internal/ports"
	"compintel/internal/render"
	"compintel/internal/rotation"
	"compintel/internal/server"
	"compintel/internal/usecase"
	"compintel/internal/usercache"
)

const (
	scanTitle     = "Competitor Intelligence Update"
	linkedinTitle = "LinkedIn Update"
)

// Application builds use cases from one resolved Config.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates the application wiring.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Config exposes the resolved configuration.
func (a *Application) Config() config.Config { return a.cfg }

// ScanPipeline wires the rotation scan workflow: posts in, Slack out.
func (a *Application) ScanPipeline() (*usecase.Pipeline, error) {
	source, err := a.postSource()
	if err != nil {
		return nil, err
	}
	summarizer, err := a.summarizer()
	if err != nil {
		return nil, err
	}
	notifier, err := a.notifier()
	if err != nil {
		return nil, err
	}
	return a.pipeline(source, summarizer, notifier), nil
}

// LinkedInPipeline wires the once-a-day company page check.
func (a *Application) LinkedInPipeline() (*usecase.LinkedInPipeline, error) {
	if a.cfg.LinkedIn.APIKey == "" {
		return nil, fmt.Errorf("scrapin api key not configured (set SCRAPIN_API)")
	}
	summarizer, err := a.summarizer()
	if err != nil {
		return nil, err
	}
	notifier, err := a.notifier()
	if err != nil {
		return nil, err
	}
	return usecase.NewLinkedIn(usecase.LinkedInDeps{
		AccountsFile: a.cfg.StatePath(a.cfg.LinkedIn.AccountsFile),
		Feed:         scrapin.New(a.cfg.LinkedIn.BaseURL, a.cfg.LinkedIn.APIKey, a.logger.With("component", "scrapin")),
		Summarizer:   summarizer,
		Normalizer:   normalize.New(a.logger.With("component", "normalize")),
		Formatter:    render.New(linkedinTitle, a.cfg.Slack.MaxChunkChars),
		Notifier:     notifier,
		PollDelay:    a.cfg.LinkedIn.PollDelay(),
		Logger:       a.logger.With("component", "linkedin"),
	}), nil
}

// DigestPipeline wires the morning summary.
func (a *Application) DigestPipeline() (*usecase.DigestPipeline, error) {
	notifier, err := a.notifier()
	if err != nil {
		return nil, err
	}
	return usecase.NewDigest(usecase.DigestDeps{
		Ledger:     a.dayLedger(),
		Formatter:  render.New(scanTitle, a.cfg.Slack.MaxChunkChars),
		Notifier:   notifier,
		RetainDays: a.cfg.Digest.RetainDays,
		Logger:     a.logger.With("component", "digest"),
	}), nil
}

// Precache wires the user-id warm-up job. Only the official API resolves
// handles through a separate lookup quota, so the job requires that
// provider.
func (a *Application) Precache() (*usecase.Precache, error) {
	if a.cfg.Twitter.Provider != "api" {
		return nil, fmt.Errorf("user id precache applies to the official twitter provider (set twitter.provider: api)")
	}
	if a.cfg.Twitter.BearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token not configured (set TWITTER_BEARER_TOKEN)")
	}
	return usecase.NewPrecache(usecase.PrecacheDeps{
		Rotator: a.rotator(),
		Cache:   a.userCache(twitter.NewLookup(a.cfg.Twitter.ResolvedBaseURL(), a.cfg.Twitter.BearerToken)),
		Budget:  a.cfg.Twitter.LookupBudget,
		Logger:  a.logger.With("component", "precache"),
	}), nil
}

// Server wires the slash-command HTTP handler. On-demand analysis
// answers through the command's response_url, so no webhook is needed.
func (a *Application) Server() (*server.Handler, error) {
	if a.cfg.Slack.VerificationToken == "" {
		return nil, fmt.Errorf("slack verification token not configured (set SLACK_VERIFICATION_TOKEN)")
	}
	source, err := a.postSource()
	if err != nil {
		return nil, err
	}
	summarizer, err := a.summarizer()
	if err != nil {
		return nil, err
	}
	runner := a.pipeline(source, summarizer, nil)
	return server.NewHandler(runner, a.cfg.Slack.VerificationToken, a.logger.With("component", "server")), nil
}

// Watch wires the cron-driven scan loop with the digest gate.
func (a *Application) Watch() (*usecase.Watch, error) {
	scan, err := a.ScanPipeline()
	if err != nil {
		return nil, err
	}
	digest, err := a.DigestPipeline()
	if err != nil {
		return nil, err
	}
	driver := scheduler.NewCron(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), a.logger.With("component", "scheduler"))
	return usecase.NewWatch(driver, scan, digest, a.logger.With("component", "watch")), nil
}

// StatusReport summarizes rotation progress and local state. It reads
// only files, never the network.
func (a *Application) StatusReport() string {
	rot := a.rotator()
	cache := a.userCache(nil)
	led := a.dayLedger()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rot.Info())
	fmt.Fprintf(&b, "Roster: %d accounts (batch size %d, tier %s)\n", len(rot.Roster()), rot.BatchSize(), a.cfg.Rotation.Tier)
	fmt.Fprintf(&b, "Cached user ids: %d\n", cache.Size())
	fmt.Fprintf(&b, "Ledger: %d days with findings\n", led.Days())
	return b.String()
}

func (a *Application) pipeline(source ports.PostSource, summarizer ports.Summarizer, notifier ports.Notifier) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineDeps{
		Rotator:    a.rotator(),
		Source:     source,
		Summarizer: summarizer,
		Normalizer: normalize.New(a.logger.With("component", "normalize")),
		Formatter:  render.New(scanTitle, a.cfg.Slack.MaxChunkChars),
		Notifier:   notifier,
		Ledger:     a.dayLedger(),
		Window:     a.cfg.Twitter.Window(),
		PollDelay:  a.cfg.Twitter.PollDelay(),
		Logger:     a.logger.With("component", "pipeline"),
	})
}

func (a *Application) rotator() *rotation.Rotator {
	return rotation.New(
		a.cfg.StatePath(a.cfg.Rotation.RosterFile),
		a.cfg.StatePath(a.cfg.Rotation.StateFile),
		a.cfg.Rotation.Tier,
		a.logger.With("component", "rotation"),
	)
}

func (a *Application) dayLedger() *ledger.Ledger {
	hour, minute := a.cfg.Digest.Time()
	return ledger.New(
		a.cfg.StatePath(a.cfg.Digest.LedgerFile),
		a.cfg.Digest.Location(),
		hour, minute,
		a.logger.With("component", "ledger"),
	)
}

func (a *Application) userCache(lookup ports.UserLookup) *usercache.Cache {
	return usercache.New(
		a.cfg.StatePath(a.cfg.Twitter.CacheFile),
		usercache.DefaultTTL,
		lookup,
		a.logger.With("component", "usercache"),
	)
}

func (a *Application) postSource() (ports.PostSource, error) {
	switch a.cfg.Twitter.Provider {
	case "api":
		if a.cfg.Twitter.BearerToken == "" {
			return nil, fmt.Errorf("twitter bearer token not configured (set TWITTER_BEARER_TOKEN)")
		}
		base := a.cfg.Twitter.ResolvedBaseURL()
		cache := a.userCache(twitter.NewLookup(base, a.cfg.Twitter.BearerToken))
		return twitter.New(base, a.cfg.Twitter.BearerToken, cache, a.logger.With("component", "twitter")), nil
	case "twitterapi", "":
		if a.cfg.Twitter.APIKey == "" {
			return nil, fmt.Errorf("twitterapi.io key not configured (set TWITTERAPI_IO_KEY)")
		}
		return twitterapi.New(a.cfg.Twitter.ResolvedBaseURL(), a.cfg.Twitter.APIKey, a.logger.With("component", "twitterapi")), nil
	default:
		return nil, fmt.Errorf("unknown twitter provider %q", a.cfg.Twitter.Provider)
	}
}

func (a *Application) summarizer() (ports.Summarizer, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("llm api key not configured (set OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}
	switch a.cfg.LLM.Provider {
	case "anthropic":
		return llm.NewAnthropic(a.cfg.LLM.APIKey, a.cfg.LLM.Model), nil
	case "openai", "":
		return llm.NewOpenAI(a.cfg.LLM.APIKey, a.cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", a.cfg.LLM.Provider)
	}
}

func (a *Application) notifier() (ports.Notifier, error) {
	if a.cfg.Slack.WebhookURL == "" {
		return nil, fmt.Errorf("slack webhook not configured (set SLACK_WEBHOOK_URL)")
	}
	return slack.NewNotifier(a.cfg.Slack.WebhookURL, a.logger.With("component", "slack")), nil
}
