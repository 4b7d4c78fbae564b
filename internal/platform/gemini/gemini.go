package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/generation"
	"google.golang.org/genai"
)

// ModelPrefix selects this backend for model names such as gemini-2.0-flash.
const ModelPrefix = "gemini-"

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.LLM using the Gemini API.
type Client struct {
	models  contentGenerator
	model   string
	retry   generation.RetryPolicy
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure Client implements generation.LLM
var _ generation.LLM = (*Client)(nil)

// New creates a Gemini client for cfg.ModelName.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if !strings.HasPrefix(cfg.ModelName, ModelPrefix) {
		return nil, fmt.Errorf("%w: %q is not a gemini model", generation.ErrInvalidConfig, cfg.ModelName)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newClient(client.Models, cfg.ModelName,
		generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds), cfg.RequestTimeout, logger), nil
}

func newClient(
	models contentGenerator,
	model string,
	policy generation.RetryPolicy,
	timeout time.Duration,
	logger *slog.Logger,
) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		models:  models,
		model:   model,
		retry:   policy,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "gemini"), slog.String("model", model)),
	}
}

// Name implements generation.LLM.
func (c *Client) Name() string {
	return c.model
}

// Generate implements generation.LLM.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.retry.Do(ctx, c.logger, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		text, err = responseText(resp)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}
