// Package slack delivers notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"compintel/internal/domain"
	"compintel/internal/ports"
	"compintel/pkg/retry"
)

// Notifier posts messages to one incoming webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a webhook notifier.
func NewNotifier(webhookURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type block struct {
	Type string    `json:"type"`
	Text blockText `json:"text"`
}

// message is the webhook payload. Text is the fallback line when blocks are
// present, the whole message when they are not. Link unfurling stays off so
// a digest full of post links does not explode into previews.
type message struct {
	Text        string  `json:"text"`
	Blocks      []block `json:"blocks,omitempty"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

// Publish sends one notification, each chunk as its own mrkdwn section.
// Transient webhook failures are retried.
func (n *Notifier) Publish(ctx context.Context, note domain.Notification) error {
	if n.webhookURL == "" {
		return fmt.Errorf("slack notifier misconfigured")
	}
	if note.Headline == "" && len(note.Chunks) == 0 {
		return nil
	}

	msg := message{Text: note.Headline}
	if msg.Text == "" {
		msg.Text = note.Chunks[0]
	}
	for _, chunk := range note.Chunks {
		msg.Blocks = append(msg.Blocks, block{
			Type: "section",
			Text: blockText{Type: "mrkdwn", Text: chunk},
		})
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	op := func() error { return n.post(ctx, body) }
	if err := retry.Do(ctx, op); err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}

	n.debug("sent notification", "chunks", len(note.Chunks))
	return nil
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return nil
}

func (n *Notifier) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
