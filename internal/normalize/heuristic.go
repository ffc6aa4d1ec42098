package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"compintel/internal/domain"
)

var bulletPattern = regexp.MustCompile(`^[•*-]\s+(.+?):\s+(.+)$`)

// cleanupProse is the last structured attempt: promote bare category
// labels to emoji headers and "Company: text" bullets to clickable
// lines. Every other line passes through unchanged, so partially
// malformed input degrades instead of aborting.
func cleanupProse(text string) (string, bool) {
	var out []string
	matched := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if label, ok := cutLabel(trimmed); ok {
			if cat, known := domain.ParseCategory(label); known {
				out = append(out, fmt.Sprintf("*%s %s:*", cat.Emoji(), cat.Display()))
				matched++
				continue
			}
		}

		if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
			company := strings.Trim(strings.TrimSpace(m[1]), "*")
			clean, url := extractURL(m[2])
			if url != "" {
				out = append(out, fmt.Sprintf("• <%s|%s>: %s", url, company, clean))
			} else {
				out = append(out, fmt.Sprintf("• %s: %s", company, clean))
			}
			matched++
			continue
		}

		out = append(out, line)
	}

	if matched == 0 {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

// cutLabel strips bold markers and the trailing colon from a line that
// consists of nothing but a label.
func cutLabel(line string) (string, bool) {
	line = strings.Trim(line, "* ")
	label, found := strings.CutSuffix(line, ":")
	if !found {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(label, "*")), true
}
