package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnemet/DeckForge/internal/config"
)

// ErrNoProvider is returned when the active provider has no usable driver.
var ErrNoProvider = errors.New("ai provider not configured")

// UsageRecorder receives token usage after every successful completion.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, u Usage) error
}

type driver interface {
	complete(ctx context.Context, p Prompt) (string, Usage, error)
}

// Client sends prompts to the active provider of the configuration.
type Client struct {
	provider string
	model    string
	drv      driver
	usage    UsageRecorder
	logger   *slog.Logger
}

func NewClient(cfg *config.Config) (*Client, error) {
	name, settings := cfg.AI.Active()

	var drv driver
	switch strings.ToLower(settings.Driver) {
	case "openai":
		d, err := newOpenAIDriver(settings)
		if err != nil {
			return nil, err
		}
		drv = d
	case "gemini":
		d, err := newGeminiDriver(settings)
		if err != nil {
			return nil, err
		}
		drv = d
	case "mock":
		drv = mockDriver{}
	default:
		return nil, fmt.Errorf("%w: %q (driver %q)", ErrNoProvider, name, settings.Driver)
	}

	return &Client{
		provider: name,
		model:    settings.Model,
		drv:      drv,
		logger:   slog.Default(),
	}, nil
}

// WithUsageRecorder attaches a recorder for token usage.
func (c *Client) WithUsageRecorder(r UsageRecorder) *Client {
	c.usage = r
	return c
}

func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) Model() string { return c.model }

// Complete returns the generated text for a prompt.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	text, usage, err := c.drv.complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.provider, err)
	}
	if usage.Provider == "" {
		usage.Provider = c.provider
	}
	if usage.Model == "" {
		usage.Model = c.model
	}
	c.logger.Debug("ai completion", "provider", usage.Provider, "model", usage.Model, "total_tokens", usage.TotalTokens)
	if c.usage != nil {
		if err := c.usage.RecordUsage(ctx, usage); err != nil {
			c.logger.Warn("failed to record ai usage", "error", err)
		}
	}
	return text, nil
}
