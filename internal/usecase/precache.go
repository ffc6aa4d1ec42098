package usecase

import (
	"context"
	"log/slog"
	"time"

	"compintel/internal/logging"
	"compintel/internal/rotation"
	"compintel/internal/usercache"
)

// precacheDelay paces warm-up lookups well under the per-15-minute
// lookup quota.
const precacheDelay = 5 * time.Second

// PrecacheDeps wires the user-id warm-up job.
type PrecacheDeps struct {
	Rotator *rotation.Rotator
	Cache   *usercache.Cache
	Budget  int
	Logger  *slog.Logger
}

// Precache spends a small lookup budget on roster handles with no fresh
// cached user id, so later scan cycles skip the costliest provider call.
type Precache struct {
	rotator *rotation.Rotator
	cache   *usercache.Cache
	budget  int
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration)
}

// NewPrecache constructs the warm-up job.
func NewPrecache(deps PrecacheDeps) *Precache {
	if deps.Budget <= 0 {
		deps.Budget = 3
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Precache{
		rotator: deps.Rotator,
		cache:   deps.Cache,
		budget:  deps.Budget,
		logger:  deps.Logger,
		sleep:   wait,
	}
}

// Run looks up at most the budgeted number of uncached handles, pacing
// calls to respect the lookup quota. Failed lookups are skipped; the
// handle stays uncached for a future run.
func (p *Precache) Run(ctx context.Context) error {
	var uncached []string
	for _, account := range p.rotator.Roster() {
		if !p.cache.Cached(account.Handle) {
			uncached = append(uncached, account.Handle)
		}
	}
	if len(uncached) == 0 {
		p.logger.Info("all roster handles already cached")
		return nil
	}

	batch := uncached
	if len(batch) > p.budget {
		batch = batch[:p.budget]
	}
	p.logger.Info("warming user id cache", "uncached", len(uncached), "this_run", len(batch))

	for i, handle := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			p.sleep(ctx, precacheDelay)
		}
		id, err := p.cache.LookupID(ctx, handle)
		if err != nil {
			p.logger.Warn("could not cache user id", "handle", handle)
			continue
		}
		p.logger.Info("cached user id", "handle", handle, "id", id)
	}

	if remaining := len(uncached) - len(batch); remaining > 0 {
		p.logger.Info("handles left for future runs", "remaining", remaining)
	}
	return ctx.Err()
}
