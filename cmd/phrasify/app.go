package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/phrasify/internal/auth"
	"github.com/phrazzld/phrasify/internal/cardgen"
	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/metrics"
	"github.com/phrazzld/phrasify/internal/platform/filestore"
	"github.com/phrazzld/phrasify/internal/platform/gemini"
	"github.com/phrazzld/phrasify/internal/platform/ollama"
	"github.com/phrazzld/phrasify/internal/platform/openai"
	"github.com/phrazzld/phrasify/internal/platform/postgres"
	"github.com/phrazzld/phrasify/internal/platform/remote"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/phrazzld/phrasify/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the dependencies shared by every command.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	db       *sql.DB
	store    store.QueueStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	runtime  *cardgen.Runtime
	prompts  *generation.PromptLoader
	tokens   auth.TokenService

	// inProcess ignores the configured generation server. The server itself
	// sets it so that it never calls back into its own API.
	inProcess bool

	llmMu sync.Mutex
	llms  map[string]generation.LLM
}

// newApplication opens the queue store and builds the runtime.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		llms:     make(map[string]generation.LLM),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	queueStore, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}
	app.store = queueStore

	prompts, err := generation.NewPromptLoader(cfg.LLM.PromptDir, generation.DefaultPromptCacheSize, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	app.prompts = prompts

	if cfg.Server.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.Server.JWTSecret, auth.DefaultTokenLifetime)
		if err != nil {
			app.cleanup(ctx)
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		app.tokens = tokens
	}

	app.runtime = cardgen.NewRuntime(
		app.store,
		task.TaskRunnerConfig{MaxConcurrent: cfg.Worker.MaxConcurrent},
		app.metrics,
		logger,
	)
	return app, nil
}

func (app *application) openStore(ctx context.Context) (store.QueueStore, error) {
	switch app.config.Cache.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, app.config.Database.URL)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.logger.Info("using postgres queue store")
		return postgres.NewQueueStore(db, app.logger), nil
	default:
		app.logger.Debug("using file queue store", slog.String("dir", app.config.Cache.Dir))
		return filestore.New(app.config.Cache.Dir, app.logger), nil
	}
}

// cleanup stops background jobs and closes the database.
func (app *application) cleanup(ctx context.Context) {
	if app.runtime != nil {
		if err := app.runtime.Close(ctx); err != nil {
			app.logger.Warn("replenish jobs did not finish before shutdown",
				slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}

// defaults is the generator config built from the configuration file.
func (app *application) defaults() domain.GeneratorConfig {
	return domain.GeneratorConfig{
		LLM:            app.config.LLM.ModelName,
		PromptName:     app.config.LLM.PromptName,
		NCards:         app.config.Generation.NCards,
		SourceLanguage: app.config.Generation.SourceLanguage,
		TargetLanguage: app.config.Generation.TargetLanguage,
	}
}

// replenisherOptions converts the cache settings.
func (app *application) replenisherOptions() cardgen.Options {
	return cardgen.Options{
		LowWaterMark:  app.config.Cache.LowWaterMark,
		FastBatchSize: app.config.Cache.FastBatchSize,
		BulkBatchSize: app.config.Cache.BulkBatchSize,
	}
}

// buildGenerator returns the generator for cfg: the generation server when an
// API URL is configured, otherwise a prompt plus the model cfg.LLM names.
func (app *application) buildGenerator(ctx context.Context, cfg domain.GeneratorConfig) (generation.Generator, error) {
	if !app.inProcess && app.config.LLM.APIURL() != "" {
		return remote.New(app.config.LLM, cfg, app.tokens, app.logger)
	}

	llm, err := app.llm(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	prompt, err := app.prompts.Load(cfg.PromptName)
	if err != nil {
		return nil, err
	}
	return generation.NewLLMGenerator(llm, prompt, cfg, app.logger)
}

// buildReplenisher returns a replenisher for cfg on the shared runtime.
func (app *application) buildReplenisher(ctx context.Context, cfg domain.GeneratorConfig) (*cardgen.Replenisher, error) {
	gen, err := app.buildGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cardgen.NewReplenisher(app.runtime, gen, cfg, app.replenisherOptions())
}

// buildFactory implements cardgen.FactoryBuilder.
func (app *application) buildFactory(ctx context.Context, cfg domain.GeneratorConfig) (*cardgen.NextCardFactory, error) {
	rep, err := app.buildReplenisher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cardgen.NewNextCardFactory(rep), nil
}

// newFactoryCache creates the session scoped factory cache. The caller
// starts and stops it.
func (app *application) newFactoryCache() (*cardgen.FactoryCache, error) {
	return cardgen.NewFactoryCache(app.buildFactory, cardgen.FactoryCacheOptions{
		SessionTTL:  app.config.Cache.SessionTTL,
		MaxSessions: app.config.Cache.MaxSessions,
	}, app.metrics, app.logger)
}

// llm returns the client for model, creating it on first use. The backend is
// chosen by the model name's prefix.
func (app *application) llm(ctx context.Context, model string) (generation.LLM, error) {
	app.llmMu.Lock()
	defer app.llmMu.Unlock()

	if llm, ok := app.llms[model]; ok {
		return llm, nil
	}

	llmCfg := app.config.LLM
	llmCfg.ModelName = model

	var (
		llm generation.LLM
		err error
	)
	switch {
	case strings.HasPrefix(model, openai.ModelPrefix):
		llm, err = openai.New(llmCfg, app.logger)
	case strings.HasPrefix(model, ollama.ModelPrefix):
		llm, err = ollama.New(llmCfg, app.logger)
	case strings.HasPrefix(model, gemini.ModelPrefix):
		llm, err = gemini.New(ctx, llmCfg, app.logger)
	default:
		err = fmt.Errorf("%w: unknown model %q (expected %s*, %s* or %s*)", generation.ErrInvalidConfig,
			model, openai.ModelPrefix, ollama.ModelPrefix, gemini.ModelPrefix)
	}
	if err != nil {
		if !errors.Is(err, generation.ErrInvalidConfig) {
			err = fmt.Errorf("%w: %w", generation.ErrInvalidConfig, err)
		}
		return nil, err
	}

	app.llms[model] = llm
	return llm, nil
}
