package normalize

import (
	"regexp"
	"strings"
)

var (
	parenURLPattern    = regexp.MustCompile(`\(\s*((?:https?://|www\.)[^)\s]+)\s*\)`)
	trailingURLPattern = regexp.MustCompile(`\s*((?:https?://|www\.)\S+)\s*$`)
)

// extractURL pulls a parenthesized or trailing link out of display text
// and returns the cleaned text alongside it. Links never stay inline:
// downstream rendering owns how they appear.
func extractURL(text string) (clean, url string) {
	if m := parenURLPattern.FindStringSubmatchIndex(text); m != nil {
		url = text[m[2]:m[3]]
		clean = text[:m[0]] + text[m[1]:]
		return tidy(clean), ensureScheme(url)
	}
	if m := trailingURLPattern.FindStringSubmatchIndex(text); m != nil {
		url = text[m[2]:m[3]]
		clean = text[:m[0]]
		return tidy(clean), ensureScheme(url)
	}
	return tidy(text), ""
}

func ensureScheme(url string) string {
	url = strings.TrimRight(url, ".,;")
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// tidy trims whitespace and stray punctuation left behind once a link
// is removed.
func tidy(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimRight(text, " \t-:;,")
	return strings.TrimSpace(text)
}
