package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/platform/ollama"
	"github.com/phrazzld/phrasify/internal/platform/openai"
	"github.com/phrazzld/phrasify/internal/platform/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 8800, LogLevel: "error"},
		Cache: config.CacheConfig{
			Backend:       config.BackendFile,
			Dir:           t.TempDir(),
			LowWaterMark:  3,
			FastBatchSize: 1,
			SessionTTL:    time.Minute,
			MaxSessions:   8,
		},
		LLM: config.LLMConfig{
			ModelName:      "gpt-4o-mini",
			PromptName:     "vocab-to-sentence",
			OpenAIAPIKey:   "test-key",
			MaxRetries:     0,
			RequestTimeout: 5 * time.Second,
		},
		Generation: config.GenerationConfig{
			NCards:         5,
			SourceLanguage: "English",
			TargetLanguage: "Ukrainian",
		},
		Worker: config.WorkerConfig{MaxConcurrent: 4, ShutdownTimeout: 5 * time.Second},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	app, err := newApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { app.cleanup(context.Background()) })
	return app
}

func TestApplicationLLMSelection(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx := context.Background()

	t.Run("openai by prefix", func(t *testing.T) {
		llm, err := app.llm(ctx, "gpt-4o-mini")
		require.NoError(t, err)
		assert.IsType(t, &openai.Client{}, llm)
	})

	t.Run("ollama by prefix", func(t *testing.T) {
		llm, err := app.llm(ctx, "ollama/llama3")
		require.NoError(t, err)
		assert.IsType(t, &ollama.Client{}, llm)
	})

	t.Run("clients are reused", func(t *testing.T) {
		first, err := app.llm(ctx, "ollama/mistral")
		require.NoError(t, err)
		second, err := app.llm(ctx, "ollama/mistral")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := app.llm(ctx, "claude-3")
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestApplicationBuildGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("in process without api url", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))
		gen, err := app.buildGenerator(ctx, app.defaults())
		require.NoError(t, err)
		assert.IsType(t, &generation.LLMGenerator{}, gen)
	})

	t.Run("remote with api url", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.Endpoint = "http://localhost:9/v1/cards"
		app := newTestApp(t, cfg)

		gen, err := app.buildGenerator(ctx, app.defaults())
		require.NoError(t, err)
		assert.IsType(t, &remote.Generator{}, gen)
	})

	t.Run("server ignores api url", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.APILocation = config.APILocationLocal
		app := newTestApp(t, cfg)
		app.inProcess = true

		gen, err := app.buildGenerator(ctx, app.defaults())
		require.NoError(t, err)
		assert.IsType(t, &generation.LLMGenerator{}, gen)
	})

	t.Run("unknown prompt", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))
		cfg := app.defaults()
		cfg.PromptName = "no-such-prompt"

		_, err := app.buildGenerator(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestApplicationHandler(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	factories, err := app.newFactoryCache()
	require.NoError(t, err)

	srv := httptest.NewServer(app.handler(factories))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metricsResp.Body.Close() }()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}
