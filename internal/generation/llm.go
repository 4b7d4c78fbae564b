package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/phrazzld/phrasify/internal/domain"
)

// LLM is a text completion backend.
type LLM interface {
	// Generate sends prompt to the model and returns its raw text reply.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name is the model name the LLM was created for.
	Name() string
}

// PromptData is the value prompt templates are executed with.
type PromptData struct {
	NCards         int
	SourceLanguage string
	TargetLanguage string
	Card           domain.TranslationCard
}

// LLMGenerator implements Generator by filling a prompt template, calling an
// LLM and parsing its reply.
type LLMGenerator struct {
	llm    LLM
	prompt *template.Template
	config domain.GeneratorConfig
	logger *slog.Logger
}

// Ensure LLMGenerator implements Generator interface
var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator for cfg. The prompt template must
// already be parsed (see PromptLoader).
func NewLLMGenerator(
	llm LLM,
	prompt *template.Template,
	cfg domain.GeneratorConfig,
	logger *slog.Logger,
) (*LLMGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: llm cannot be nil", ErrInvalidConfig)
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: prompt cannot be nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LLMGenerator{
		llm:    llm,
		prompt: prompt,
		config: cfg,
		logger: logger.With(
			slog.String("component", "llm_generator"),
			slog.String("llm", llm.Name()),
			slog.String("prompt", cfg.PromptName),
		),
	}, nil
}

// DefaultBatchSize returns the configured number of cards per call.
func (g *LLMGenerator) DefaultBatchSize() int {
	return g.config.NCards
}

// GenerateCards implements Generator.
func (g *LLMGenerator) GenerateCards(
	ctx context.Context,
	seed domain.TranslationCard,
	n int,
) ([]domain.TranslationCard, error) {
	if n <= 0 {
		n = g.config.NCards
	}

	prompt, err := g.renderPrompt(seed, n)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "generating cards",
		slog.Int("n_cards", n),
		slog.String("seed", seed.Source))

	response, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.WarnContext(ctx, "llm call failed", slog.String("error", err.Error()))
		return nil, wrapGenerationError(err)
	}

	g.logger.DebugContext(ctx, "response from llm", slog.Int("length", len(response)))

	cards, err := ParseCards(response)
	if err != nil {
		g.logger.WarnContext(ctx, "could not parse llm response",
			slog.String("error", err.Error()),
			slog.String("response", truncate(response, 500)))
		return nil, err
	}
	return cards, nil
}

func (g *LLMGenerator) renderPrompt(seed domain.TranslationCard, n int) (string, error) {
	var b strings.Builder
	err := g.prompt.Execute(&b, PromptData{
		NCards:         n,
		SourceLanguage: g.config.SourceLanguage,
		TargetLanguage: g.config.TargetLanguage,
		Card:           seed,
	})
	if err != nil {
		return "", fmt.Errorf("%w: rendering prompt %q: %w", ErrInvalidConfig, g.config.PromptName, err)
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
