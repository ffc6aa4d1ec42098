// Package server exposes the Slack slash command surface. Slack expects an
// acknowledgment within three seconds, so the analysis runs in the background
// and the result goes back through the response_url callback.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const onDemandTimeout = 3 * time.Minute

const (
	ackText        = "🔍 Fetching latest competitive intelligence... This may take a moment."
	emptyText      = "📊 *Latest Competitive Intelligence*\n\nNo significant developments detected in the last 24 hours from monitored accounts."
	failureText    = "⚠️ *Service Issue*\n\nThere was a temporary issue accessing the monitoring services. Please try again in a few minutes."
	unknownCommand = "Unknown command. Use `/intel` to get latest competitive intelligence."
)

// AnalysisRunner produces an on-demand intelligence report. An empty report
// with a nil error means nothing noteworthy was found.
type AnalysisRunner interface {
	OnDemand(ctx context.Context) (string, error)
}

// Handler serves the /intel slash command.
type Handler struct {
	runner            AnalysisRunner
	verificationToken string
	client            *http.Client
	logger            *slog.Logger
}

// NewHandler creates the slash command handler.
func NewHandler(runner AnalysisRunner, verificationToken string, logger *slog.Logger) *Handler {
	return &Handler{
		runner:            runner,
		verificationToken: verificationToken,
		client:            &http.Client{Timeout: 10 * time.Second},
		logger:            logger,
	}
}

// Router builds the HTTP surface.
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()
	r.POST("/intel", h.HandleIntel)
	r.GET("/health", h.HandleHealth)
	return r
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// HandleIntel verifies the Slack request, acknowledges immediately, and
// delivers the analysis through the response_url once it is ready.
func (h *Handler) HandleIntel(c *gin.Context) {
	if c.PostForm("token") != h.verificationToken {
		c.JSON(http.StatusForbidden, gin.H{"text": "Invalid token"})
		return
	}
	if command := c.PostForm("command"); command != "/intel" {
		c.JSON(http.StatusOK, gin.H{"text": unknownCommand})
		return
	}

	go h.respondLater(context.Background(), c.PostForm("response_url"))

	c.JSON(http.StatusOK, gin.H{
		"response_type": "in_channel",
		"text":          ackText,
	})
}

func (h *Handler) respondLater(ctx context.Context, responseURL string) {
	if responseURL == "" {
		h.warn("slash command carried no response_url, dropping result")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, onDemandTimeout)
	defer cancel()

	analysis, err := h.runner.OnDemand(ctx)

	var text string
	switch {
	case err != nil:
		h.warn("on-demand analysis failed", "error", err)
		text = failureText
	case analysis == "":
		text = emptyText
	default:
		text = "📊 *Latest Competitive Intelligence*\n\n" + analysis
	}

	if err := h.postResponse(ctx, responseURL, text); err != nil {
		h.warn("failed to deliver slash command response", "error", err)
	}
}

func (h *Handler) postResponse(ctx context.Context, responseURL, text string) error {
	body, err := json.Marshal(gin.H{
		"response_type": "in_channel",
		"text":          text,
	})
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return nil
}

func (h *Handler) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
