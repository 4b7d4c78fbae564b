// Package remote provides a generation.Generator that delegates to a
// phrasify server (`phrasify serve`) over HTTP, so clients without model
// credentials can share one server's keys.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/phrasify/internal/auth"
	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/platform/llmhttp"
	"github.com/phrazzld/phrasify/internal/platform/logger"
)

// TokenSubject is the subject of the bearer tokens the generator sends.
const TokenSubject = "phrasify-remote"

// Generator implements generation.Generator against POST /v1/cards.
type Generator struct {
	url    string
	config domain.GeneratorConfig
	client *http.Client
	tokens auth.TokenService
	retry  generation.RetryPolicy
	logger *slog.Logger
}

// Ensure Generator implements generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// New creates a generator for genCfg posting to cfg.APIURL(). tokens may be
// nil when the server does not require authentication.
func New(
	cfg config.LLMConfig,
	genCfg domain.GeneratorConfig,
	tokens auth.TokenService,
	logger *slog.Logger,
) (*Generator, error) {
	url := cfg.APIURL()
	if url == "" {
		return nil, fmt.Errorf("%w: remote generator needs api_location or api_url", generation.ErrInvalidConfig)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: invalid api url %q", generation.ErrInvalidConfig, url)
	}
	if err := genCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		url:    url,
		config: genCfg,
		client: llmhttp.NewClient(cfg.RequestTimeout),
		tokens: tokens,
		retry:  generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
		logger: logger.With(slog.String("component", "remote_generator"), slog.String("url", url)),
	}, nil
}

// DefaultBatchSize implements generation.Generator.
func (g *Generator) DefaultBatchSize() int {
	return g.config.NCards
}

// GenerateCards implements generation.Generator.
func (g *Generator) GenerateCards(
	ctx context.Context,
	seed domain.TranslationCard,
	n int,
) ([]domain.TranslationCard, error) {
	if n <= 0 {
		n = g.DefaultBatchSize()
	}

	req := cardGenerationRequest{CardGenerator: g.config, Card: seed, NCards: n}

	var cards []domain.TranslationCard
	err := g.retry.Do(ctx, g.logger, func(ctx context.Context) error {
		header, err := g.header(ctx)
		if err != nil {
			return err
		}
		cards = nil
		return llmhttp.PostJSON(ctx, g.client, g.url, header, req, &cards)
	})
	if err != nil {
		if !errors.Is(err, generation.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
		}
		return nil, err
	}

	g.logger.DebugContext(ctx, "received cards from server",
		slog.String("seed", seed.Source),
		slog.Int("requested", n),
		slog.Int("received", len(cards)))
	if cards == nil {
		cards = []domain.TranslationCard{}
	}
	return cards, nil
}

// header builds the request headers: a fresh bearer token when signing is
// configured and the caller's trace ID.
func (g *Generator) header(ctx context.Context) (http.Header, error) {
	header := http.Header{}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		header.Set("X-Request-ID", id)
	}
	if g.tokens == nil {
		return header, nil
	}
	token, err := g.tokens.GenerateToken(ctx, TokenSubject)
	if err != nil {
		return nil, fmt.Errorf("%w: signing request: %w", generation.ErrInvalidConfig, err)
	}
	header.Set("Authorization", "Bearer "+token)
	return header, nil
}

// cardGenerationRequest mirrors the server's request body.
type cardGenerationRequest struct {
	CardGenerator domain.GeneratorConfig `json:"card_generator"`
	Card          domain.TranslationCard `json:"card"`
	NCards        int                    `json:"n_cards,omitempty"`
}
