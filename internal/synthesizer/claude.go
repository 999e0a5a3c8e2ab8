package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// ClaudeConfig holds settings for the Claude generator.
type ClaudeConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Validate validates the configuration.
func (c ClaudeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("anthropic API key required")
	}
	if c.Model == "" {
		return errors.New("model required")
	}
	return nil
}

// ClaudeGenerator generates answers via the Anthropic Messages API.
type ClaudeGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClaudeGenerator creates a generator with the given configuration.
func NewClaudeGenerator(config ClaudeConfig, logger *zap.Logger) (*ClaudeGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClaudeGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:     config.Model,
		maxTokens: int64(config.MaxTokens),
		timeout:   config.Timeout,
		logger:    logger,
	}, nil
}

// Generate produces a completion for the prompt, bounded by the configured
// timeout.
func (g *ClaudeGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}

	start := time.Now()
	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty completion")
	}

	g.logger.Debug("claude completion",
		zap.String("model", g.model),
		zap.Int("response_length", len(text)),
		zap.Duration("duration", time.Since(start)),
	)
	return text, nil
}
