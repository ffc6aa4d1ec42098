package normalize

import (
	"regexp"
	"strings"

	"compintel/internal/domain"
)

var (
	headingPattern    = regexp.MustCompile(`^#{1,4}\s+(.+?)\s*$`)
	boldBulletPattern = regexp.MustCompile(`^[*•-]\s+\*\*(.+?)\*\*:?\s*(.+)$`)
)

// parseMarkdown is the structured strategy: "### Category" headings
// with "*   **Company:** text" bullets underneath. The most recent
// heading is the active category; lines outside both shapes are
// ignored, as are bullets before the first heading.
func parseMarkdown(text string) (domain.CategoryMap, bool) {
	out := domain.CategoryMap{}
	active := domain.CategoryOther
	seenHeading := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			active, _ = domain.ParseCategory(m[1])
			seenHeading = true
			continue
		}

		if !seenHeading {
			continue
		}

		if m := boldBulletPattern.FindStringSubmatch(line); m != nil {
			company := strings.TrimSpace(strings.TrimSuffix(m[1], ":"))
			clean, url := extractURL(m[2])
			if company == "" || (clean == "" && url == "") {
				continue
			}
			out[active] = append(out[active], domain.Item{
				Company:  company,
				Headline: clean,
				URL:      url,
			})
		}
	}

	if !seenHeading || out.Empty() {
		return nil, false
	}
	return out, true
}
