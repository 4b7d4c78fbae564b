package llmhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Value string `json:"value"`
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echo{Value: in.Value + "!"})
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer k")

	var out echo
	err := PostJSON(context.Background(), NewClient(time.Second), srv.URL, header, echo{Value: "hi"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hi!", out.Value)
}

func TestPostJSONErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", generation.ErrTransientFailure},
		{"server error", http.StatusInternalServerError, "oops", generation.ErrTransientFailure},
		{"unauthorized", http.StatusUnauthorized, "bad key", generation.ErrInvalidConfig},
		{"bad request", http.StatusBadRequest, "nope", generation.ErrGenerationFailed},
		{"garbage", http.StatusOK, "not json", generation.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out echo
			err := PostJSON(context.Background(), NewClient(time.Second), srv.URL, nil, echo{}, &out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPostJSONUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out echo
	err := PostJSON(context.Background(), NewClient(time.Second), url, nil, echo{}, &out)

	require.Error(t, err)
	assert.NotErrorIs(t, err, generation.ErrGenerationFailed, "transport errors stay retryable")
}
