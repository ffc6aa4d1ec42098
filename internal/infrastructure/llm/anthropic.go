package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"compintel/internal/domain"
	"compintel/internal/ports"
)

// Anthropic analyzes post batches with a Claude model.
type Anthropic struct {
	client *anthropic.Client
	model  anthropic.Model
}

var _ ports.Summarizer = (*Anthropic)(nil)

// NewAnthropic creates a Claude-backed analyzer. An empty model picks the
// default.
func NewAnthropic(apiKey, model string) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := anthropic.ModelClaudeHaiku4_5
	if model != "" {
		m = anthropic.Model(model)
	}
	return &Anthropic{client: &client, model: m}
}

// Analyze returns the model's raw intelligence report for the batch. An
// empty batch short-circuits without an API call.
func (c *Anthropic) Analyze(ctx context.Context, posts []domain.Post, day time.Time) (string, error) {
	if len(posts) == 0 {
		return domain.SentinelNothingImportant, nil
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(analysisPrompt(posts, day))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}
