// Package render turns category maps and accumulated summaries into
// Slack mrkdwn, chunked to fit the transport's block limit.
package render

import (
	"fmt"
	"strings"
	"time"

	"compintel/internal/domain"
)

const defaultMaxChunkChars = 2800

// Formatter renders digests under a fixed title. MaxChunkChars stays
// under Slack's 3000-character section limit with margin for block
// framing.
type Formatter struct {
	Title         string
	MaxChunkChars int
}

// New builds a Formatter; maxChunkChars <= 0 selects the default.
func New(title string, maxChunkChars int) *Formatter {
	if maxChunkChars <= 0 {
		maxChunkChars = defaultMaxChunkChars
	}
	return &Formatter{Title: title, MaxChunkChars: maxChunkChars}
}

// Digest renders a full update: title header, then one block per
// non-empty category in fixed order. An empty map yields the fixed
// "no significant updates" message.
func (f *Formatter) Digest(m domain.CategoryMap, date time.Time) string {
	header := fmt.Sprintf("*%s: %s*", f.Title, date.Format("2 Jan"))

	if m.Empty() {
		return header + "\n\nNo significant updates today."
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	writeSections(&b, m)
	return strings.TrimRight(b.String(), "\n")
}

// Sections renders just the category blocks, no header. This is the
// form the daily ledger stores.
func (f *Formatter) Sections(m domain.CategoryMap) string {
	var b strings.Builder
	writeSections(&b, m)
	return strings.Trim(b.String(), "\n")
}

// Freeform wraps pre-rendered text under the title header.
func (f *Formatter) Freeform(text string, date time.Time) string {
	return fmt.Sprintf("*%s: %s*\n\n%s", f.Title, date.Format("2 Jan"), text)
}

// Headline is the plain-text notification fallback shown in Slack
// previews.
func (f *Formatter) Headline(date time.Time) string {
	return fmt.Sprintf("🔍 %s - %s", f.Title, date.Format("2006-01-02"))
}

// Notification bundles text into a transport-ready note.
func (f *Formatter) Notification(text string, date time.Time) domain.Notification {
	return domain.Notification{
		Headline: f.Headline(date),
		Chunks:   f.Chunks(text),
	}
}

// Chunks splits text into transport-sized pieces at line boundaries,
// never mid-line. A single line longer than the limit becomes its own
// oversized chunk.
func (f *Formatter) Chunks(text string) []string {
	if text == "" {
		return nil
	}

	limit := f.MaxChunkChars
	if limit <= 0 {
		limit = defaultMaxChunkChars
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		need := len(line)
		if b.Len() > 0 {
			need++
		}
		if b.Len() > 0 && b.Len()+need > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

func writeSections(b *strings.Builder, m domain.CategoryMap) {
	for _, cat := range domain.CategoryOrder {
		items := m[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n*%s %s:*\n", cat.Emoji(), cat.Display())
		for _, item := range groupByCompany(items) {
			writeItem(b, item)
		}
	}
}

func writeItem(b *strings.Builder, item domain.Item) {
	company := item.Company
	if company == "" {
		company = "Unknown"
	}
	prefix := ""
	if item.Critical {
		prefix = "🚨 "
	}
	if item.URL != "" {
		fmt.Fprintf(b, "• %s<%s|%s>: %s\n", prefix, item.URL, company, item.Headline)
	} else {
		fmt.Fprintf(b, "• %s%s: %s\n", prefix, company, item.Headline)
	}
}

// groupByCompany keeps a company's items adjacent while preserving
// first-seen company order.
func groupByCompany(items []domain.Item) []domain.Item {
	var order []string
	buckets := make(map[string][]domain.Item)
	for _, item := range items {
		if _, ok := buckets[item.Company]; !ok {
			order = append(order, item.Company)
		}
		buckets[item.Company] = append(buckets[item.Company], item)
	}

	out := make([]domain.Item, 0, len(items))
	for _, company := range order {
		out = append(out, buckets[company]...)
	}
	return out
}
