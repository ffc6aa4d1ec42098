package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"compintel/internal/domain"
	"compintel/internal/ports"
)

// OpenAI analyzes post batches with an OpenAI chat model.
type OpenAI struct {
	client *openai.Client
	model  openai.ChatModel
}

var _ ports.Summarizer = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI-backed analyzer. An empty model picks the
// default.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	m := openai.ChatModelGPT4oMini
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &OpenAI{client: &client, model: m}
}

// Analyze returns the model's raw intelligence report for the batch. An
// empty batch short-circuits without an API call.
func (c *OpenAI) Analyze(ctx context.Context, posts []domain.Post, day time.Time) (string, error) {
	if len(posts) == 0 {
		return domain.SentinelNothingImportant, nil
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(analysisPrompt(posts, day)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
