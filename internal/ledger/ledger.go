// Package ledger accumulates per-run intelligence under calendar-day
// keys so the morning digest can replay a whole day at once.
package ledger

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"compintel/internal/domain"
)

// Entry is one monitoring run's contribution to a day.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Headlines string `json:"headlines"`
	RunInfo   string `json:"run_info"`
}

// Ledger is a flat-file day→entries map. I/O failures degrade to
// warnings with empty state; the file is advisory bookkeeping, not a
// system of record.
type Ledger struct {
	path   string
	loc    *time.Location
	hour   int
	minute int
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Ledger whose digest gate opens at hour:minute in loc.
func New(path string, loc *time.Location, hour, minute int, logger *slog.Logger) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{
		path:   path,
		loc:    loc,
		hour:   hour,
		minute: minute,
		logger: logger,
		now:    time.Now,
	}
}

// Add appends a timestamped entry under today's key. Empty or sentinel
// headlines are dropped without touching the file.
func (l *Ledger) Add(headlines, runInfo string) {
	if headlines == "" || headlines == domain.SentinelNothingImportant {
		return
	}

	now := l.now().In(l.loc)
	day := now.Format("2006-01-02")

	data := l.load()
	data[day] = append(data[day], Entry{
		Timestamp: now.Format("15:04"),
		Headlines: headlines,
		RunInfo:   runInfo,
	})
	l.save(data)
}

// Summary concatenates a day's headlines, deduplicated line-by-line in
// first-seen order. An empty date means today.
func (l *Ledger) Summary(date string) string {
	if date == "" {
		date = l.now().In(l.loc).Format("2006-01-02")
	}

	entries := l.load()[date]
	if len(entries) == 0 {
		return domain.SentinelNothingImportant
	}

	seen := make(map[string]struct{})
	var unique []string
	for _, entry := range entries {
		if entry.Headlines == "" || entry.Headlines == domain.SentinelNothingImportant {
			continue
		}
		for _, line := range strings.Split(entry.Headlines, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			unique = append(unique, line)
		}
	}

	if len(unique) == 0 {
		return domain.SentinelNothingImportant
	}
	return strings.Join(unique, "\n")
}

// ShouldEmitDailyDigest is a one-minute time gate: true only at the
// configured wall-clock minute, and only when yesterday accumulated
// something worth sending. The outer scheduler's cadence is what makes
// the gate eventually true; a cadence that skips the minute skips the
// day.
func (l *Ledger) ShouldEmitDailyDigest() bool {
	now := l.now().In(l.loc)
	if now.Hour() != l.hour || now.Minute() != l.minute {
		return false
	}
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	return l.Summary(yesterday) != domain.SentinelNothingImportant
}

// Prune drops days older than retainDays. Date keys compare
// lexicographically since they are YYYY-MM-DD.
func (l *Ledger) Prune(retainDays int) {
	cutoff := l.now().In(l.loc).AddDate(0, 0, -retainDays).Format("2006-01-02")

	data := l.load()
	kept := make(map[string][]Entry, len(data))
	for date, entries := range data {
		if date >= cutoff {
			kept[date] = entries
		}
	}
	l.save(kept)
}

// Days returns how many calendar keys are currently stored.
func (l *Ledger) Days() int { return len(l.load()) }

// Yesterday returns the previous day's key in the ledger's timezone.
func (l *Ledger) Yesterday() string {
	return l.now().In(l.loc).AddDate(0, 0, -1).Format("2006-01-02")
}

func (l *Ledger) load() map[string][]Entry {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return map[string][]Entry{}
	}
	var data map[string][]Entry
	if err := json.Unmarshal(raw, &data); err != nil {
		l.warn("daily ledger unreadable, starting empty", "path", l.path, "error", err)
		return map[string][]Entry{}
	}
	if data == nil {
		data = map[string][]Entry{}
	}
	return data
}

func (l *Ledger) save(data map[string][]Entry) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		l.warn("cannot encode daily ledger", "error", err)
		return
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		l.warn("cannot save daily ledger", "path", l.path, "error", err)
	}
}

func (l *Ledger) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
