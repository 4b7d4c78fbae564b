package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, generateRequest{Model: "mistral", Prompt: "make cards", Stream: false}, req)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "[]", Done: true})
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{ModelName: "ollama/mistral", OllamaURL: srv.URL, RequestTimeout: time.Second}, nil)
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "make cards")

	require.NoError(t, err)
	assert.Equal(t, "[]", text)
	assert.Equal(t, "ollama/mistral", c.Name())
}

func TestGenerateEmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Done: true})
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{ModelName: "ollama/mistral", OllamaURL: srv.URL, RequestTimeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestNewRejectsOtherModels(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"mistral", "ollama/", "gpt-4o"} {
		_, err := New(config.LLMConfig{ModelName: name}, nil)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig, name)
	}
}
