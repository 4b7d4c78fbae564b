// Package openai provides a generation.LLM backed by the OpenAI chat
// completions API, or any server that speaks the same protocol.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/platform/llmhttp"
)

// ModelPrefix selects this backend for model names such as gpt-3.5-turbo.
const ModelPrefix = "gpt-"

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client implements generation.LLM using chat completions.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    generation.RetryPolicy
	logger   *slog.Logger
}

// Ensure Client implements generation.LLM
var _ generation.LLM = (*Client)(nil)

// New creates a client for cfg.ModelName.
func New(cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if !strings.HasPrefix(cfg.ModelName, ModelPrefix) {
		return nil, fmt.Errorf("%w: %q is not an openai model", generation.ErrInvalidConfig, cfg.ModelName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := cfg.OpenAIBaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		apiKey:   cfg.OpenAIAPIKey,
		model:    cfg.ModelName,
		endpoint: strings.TrimRight(base, "/") + "/chat/completions",
		client:   llmhttp.NewClient(cfg.RequestTimeout),
		retry:    generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
		logger:   logger.With(slog.String("component", "openai"), slog.String("model", cfg.ModelName)),
	}, nil
}

// Name implements generation.LLM.
func (c *Client) Name() string {
	return c.model
}

// Generate implements generation.LLM.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	var content string
	err := c.retry.Do(ctx, c.logger, func(ctx context.Context) error {
		var resp chatResponse
		if err := llmhttp.PostJSON(ctx, c.client, c.endpoint, header, req, &resp); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
		}
		choice := resp.Choices[0]
		if choice.FinishReason == "content_filter" {
			return fmt.Errorf("%w: completion stopped by content filter", generation.ErrContentBlocked)
		}
		if strings.TrimSpace(choice.Message.Content) == "" {
			return fmt.Errorf("%w: empty text content in response", generation.ErrInvalidResponse)
		}
		content = choice.Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}
