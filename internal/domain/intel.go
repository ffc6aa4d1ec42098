package domain

import "strings"

const (
	// SentinelNothingImportant is the upstream model's agreed "no findings"
	// answer. The aggregator treats it as an empty input.
	SentinelNothingImportant = "Nothing important today"

	// SentinelNoNews is the canonical empty signal produced by the
	// normalizer when raw input carries no usable content.
	SentinelNoNews = "No competitor news available"
)

// Item is a single normalized intelligence finding. Immutable once created.
type Item struct {
	Company  string
	Headline string
	URL      string
	Critical bool
}

// CategoryMap is the canonical structure all downstream formatting consumes.
type CategoryMap map[Category][]Item

// Empty reports whether no category holds any item.
func (m CategoryMap) Empty() bool {
	for _, items := range m {
		if len(items) > 0 {
			return false
		}
	}
	return true
}

// Dedupe drops repeated findings, keeping the first occurrence. Two items
// collide when they share a company and their headlines collapse to the same
// normalized key, even across categories. The upstream model restates the
// same fact in different phrasings and sections often enough to need this.
func (m CategoryMap) Dedupe() CategoryMap {
	if len(m) == 0 {
		return m
	}

	out := make(CategoryMap, len(m))
	seen := map[string]struct{}{}
	for _, cat := range CategoryOrder {
		for _, item := range m[cat] {
			key := strings.ToLower(strings.TrimSpace(item.Company)) + "\x00" + DedupeKey(item.Headline)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out[cat] = append(out[cat], item)
		}
	}
	return out
}

// DedupeKey normalizes a headline for duplicate detection: lowercased,
// punctuation stripped, whitespace collapsed.
func DedupeKey(headline string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(headline) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// Notification is one outbound chat message: a plain-text headline for the
// fallback line plus ordered mrkdwn chunks, each fitting one transport block.
type Notification struct {
	Headline string
	Chunks   []string
}
