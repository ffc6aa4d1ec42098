// Package normalize turns free-form LLM output into the canonical
// category map. The model is under no obligation to keep its output
// shape stable across calls, so parsing is an ordered cascade: strict
// JSON, structured markdown, heuristic prose cleanup, then a raw fenced
// fallback. The worst case is an explicit "no news" signal, never an
// error.
package normalize

import (
	"log/slog"
	"strings"

	"compintel/internal/domain"
)

// Kind names the strategy that produced a Result.
type Kind int

const (
	KindEmpty Kind = iota
	KindJSON
	KindMarkdown
	KindHeuristic
	KindRawFallback
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindMarkdown:
		return "markdown"
	case KindHeuristic:
		return "heuristic"
	case KindRawFallback:
		return "raw"
	default:
		return "empty"
	}
}

// Result is the outcome of one Normalize call. Structured strategies
// fill Items; text strategies fill Text.
type Result struct {
	Kind  Kind
	Items domain.CategoryMap
	Text  string
}

// Normalizer implements the parsing cascade.
type Normalizer struct {
	minRawLen int
	logger    *slog.Logger
}

// New builds a Normalizer. Raw content shorter than 50 characters is
// treated as noise rather than wrapped verbatim.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{minRawLen: 50, logger: logger}
}

// Normalize classifies raw LLM output. First strategy to produce a
// non-empty result wins; at worst the result is KindEmpty carrying the
// canonical no-news text.
func (n *Normalizer) Normalize(raw string) Result {
	text := strings.TrimSpace(raw)
	if text == "" || text == domain.SentinelNothingImportant {
		return Result{Kind: KindEmpty, Text: domain.SentinelNoNews}
	}

	if items, ok := parseJSON(text); ok {
		n.debug("normalized llm response", "strategy", KindJSON.String(), "categories", len(items))
		return Result{Kind: KindJSON, Items: items.Dedupe()}
	}

	if items, ok := parseMarkdown(text); ok {
		n.debug("normalized llm response", "strategy", KindMarkdown.String(), "categories", len(items))
		return Result{Kind: KindMarkdown, Items: items.Dedupe()}
	}

	if cleaned, ok := cleanupProse(text); ok {
		n.debug("normalized llm response", "strategy", KindHeuristic.String())
		return Result{Kind: KindHeuristic, Text: cleaned}
	}

	if len(text) >= n.minRawLen {
		n.debug("normalized llm response", "strategy", KindRawFallback.String(), "length", len(text))
		return Result{Kind: KindRawFallback, Text: "```raw format\n" + text + "\n```"}
	}

	return Result{Kind: KindEmpty, Text: domain.SentinelNoNews}
}

func (n *Normalizer) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
