// Package rotation slices the monitored roster into per-cycle batches so
// runs stay inside the provider's rate limits. The cursor lives in a small
// JSON file between invocations.
package rotation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"compintel/internal/domain"
)

type state struct {
	LastIndex     int      `json:"last_index"`
	LastRun       string   `json:"last_run"`
	TotalAccounts int      `json:"total_accounts"`
	CycleAccounts []string `json:"current_cycle_accounts,omitempty"`
}

// Rotator hands out contiguous, non-overlapping roster batches that cover
// every account once per full cycle.
type Rotator struct {
	rosterPath string
	statePath  string
	batch      int
	tier       string
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a Rotator for the given roster and cursor files. The batch
// size follows the provider tier; unknown tiers get a conservative 2.
func New(rosterPath, statePath, tier string, logger *slog.Logger) *Rotator {
	return &Rotator{
		rosterPath: rosterPath,
		statePath:  statePath,
		batch:      batchSizeForTier(tier),
		tier:       tier,
		logger:     logger,
		now:        time.Now,
	}
}

func batchSizeForTier(tier string) int {
	switch strings.ToLower(tier) {
	case "free":
		return 1
	case "basic":
		return 5
	case "pro":
		return 25
	default:
		return 2
	}
}

// NextBatch returns the accounts to poll this cycle and advances the
// persisted cursor. It never fails: a missing roster falls back to the
// built-in default, a stale cursor wraps back to the start, and cursor
// write failures are logged and tolerated.
func (r *Rotator) NextBatch() []domain.Account {
	roster := r.Roster()
	total := len(roster)

	if total <= r.batch {
		return roster
	}

	st := r.loadState()
	start := st.LastIndex
	if start < 0 || start > total {
		start = total
	}
	end := start + r.batch
	if end > total {
		end = total
	}
	batch := roster[start:end]

	next := end
	if next >= total {
		next = 0
	}

	snapshot := make([]string, 0, len(batch))
	for _, acc := range batch {
		snapshot = append(snapshot, acc.Handle+":"+acc.Company)
	}
	r.saveState(state{
		LastIndex:     next,
		LastRun:       r.now().Format(time.RFC3339),
		TotalAccounts: total,
		CycleAccounts: snapshot,
	})

	return batch
}

// Info returns a human-readable description of rotation progress.
func (r *Rotator) Info() string {
	roster := r.Roster()
	st := r.loadState()

	total := len(roster)
	if total <= r.batch {
		return fmt.Sprintf("Monitoring all %d accounts (within API limits)", total)
	}

	cycleLength := (total + r.batch - 1) / r.batch
	currentCycle := st.LastIndex/r.batch + 1

	return fmt.Sprintf("Rotation cycle %d/%d: %d accounts this run", currentCycle, cycleLength, len(st.CycleAccounts))
}

// BatchSize returns how many accounts one cycle covers.
func (r *Rotator) BatchSize() int { return r.batch }

func (r *Rotator) loadState() state {
	raw, err := os.ReadFile(r.statePath)
	if err != nil {
		return state{}
	}
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		r.warn("rotation state unreadable, starting over", "path", r.statePath, "error", err)
		return state{}
	}
	return st
}

func (r *Rotator) saveState(st state) {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		r.warn("cannot encode rotation state", "error", err)
		return
	}
	if err := os.WriteFile(r.statePath, raw, 0o644); err != nil {
		r.warn("cannot save rotation state", "path", r.statePath, "error", err)
	}
}

func (r *Rotator) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
