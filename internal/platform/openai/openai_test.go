package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.LLMConfig{
		ModelName:         "gpt-3.5-turbo",
		OpenAIAPIKey:      "sk-test",
		OpenAIBaseURL:     srv.URL + "/v1/",
		MaxRetries:        2,
		RetryDelaySeconds: 0,
		RequestTimeout:    time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	c.retry.BaseDelay = time.Millisecond
	return c
}

func reply(w http.ResponseWriter, content, finish string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, []chatMessage{{Role: "user", Content: "make cards"}}, req.Messages)

		reply(w, `[{"source": "a", "target": "b"}]`, "stop")
	})

	text, err := c.Generate(context.Background(), "make cards")

	require.NoError(t, err)
	assert.Equal(t, `[{"source": "a", "target": "b"}]`, text)
	assert.Equal(t, "gpt-3.5-turbo", c.Name())
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		reply(w, "[]", "stop")
	})

	text, err := c.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "[]", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		calls   int32
	}{
		{
			name:    "bad key",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			want:    generation.ErrInvalidConfig,
			calls:   1,
		},
		{
			name:    "always unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    generation.ErrTransientFailure,
			calls:   3,
		},
		{
			name:    "content filter",
			handler: func(w http.ResponseWriter, r *http.Request) { reply(w, "", "content_filter") },
			want:    generation.ErrContentBlocked,
			calls:   1,
		},
		{
			name:    "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices": []}`)) },
			want:    generation.ErrInvalidResponse,
			calls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			})

			_, err := c.Generate(context.Background(), "p")

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(config.LLMConfig{ModelName: "gpt-4o"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = New(config.LLMConfig{ModelName: "ollama/mistral", OpenAIAPIKey: "k"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
