// Package ollama provides a generation.LLM backed by a local Ollama server's
// /api/generate endpoint.
package ollama

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

// ModelPrefix selects this backend; the rest of the name is the Ollama
// model, e.g. ollama/mistral.
const ModelPrefix = "ollama/"

// DefaultURL is where Ollama listens by default.
const DefaultURL = "http://localhost:11434"

// Client implements generation.LLM using Ollama.
type Client struct {
	name     string
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
	model, ok := strings.CutPrefix(cfg.ModelName, ModelPrefix)
	if !ok || model == "" {
		return nil, fmt.Errorf("%w: %q is not an ollama model", generation.ErrInvalidConfig, cfg.ModelName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := cfg.OllamaURL
	if base == "" {
		base = DefaultURL
	}

	return &Client{
		name:     cfg.ModelName,
		model:    model,
		endpoint: strings.TrimRight(base, "/") + "/api/generate",
		client:   llmhttp.NewClient(cfg.RequestTimeout),
		retry:    generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
		logger:   logger.With(slog.String("component", "ollama"), slog.String("model", model)),
	}, nil
}

// Name implements generation.LLM.
func (c *Client) Name() string {
	return c.name
}

// Generate implements generation.LLM.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Model: c.model, Prompt: prompt, Stream: false}

	var text string
	err := c.retry.Do(ctx, c.logger, func(ctx context.Context) error {
		var resp generateResponse
		if err := llmhttp.PostJSON(ctx, c.client, c.endpoint, nil, req, &resp); err != nil {
			return err
		}
		if strings.TrimSpace(resp.Response) == "" {
			return fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
		}
		text = resp.Response
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
