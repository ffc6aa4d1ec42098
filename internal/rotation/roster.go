package rotation

import (
	"os"
	"strings"

	"compintel/internal/domain"
)

// defaultRoster keeps monitoring alive when the roster file is missing.
// Losing one cycle of coverage beats crashing the scheduled job.
var defaultRoster = []domain.Account{
	{Handle: "DecagonAI", Company: "Decagon"},
	{Handle: "SierraPlatform", Company: "Sierra"},
}

// Roster returns every monitored account in file order.
func (r *Rotator) Roster() []domain.Account {
	raw, err := os.ReadFile(r.rosterPath)
	if err != nil {
		r.warn("roster file unreadable, using built-in defaults", "path", r.rosterPath, "error", err)
		return defaultRoster
	}
	return ParseRoster(string(raw))
}

// ParseRoster reads one account per line, either "handle" or
// "handle:DisplayName". Blank lines are skipped; without a display name
// the handle doubles as the company.
func ParseRoster(raw string) []domain.Account {
	var accounts []domain.Account
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if handle, company, ok := strings.Cut(line, ":"); ok {
			accounts = append(accounts, domain.Account{
				Handle:  strings.TrimSpace(handle),
				Company: strings.TrimSpace(company),
			})
		} else {
			accounts = append(accounts, domain.Account{Handle: line, Company: line})
		}
	}
	return accounts
}
