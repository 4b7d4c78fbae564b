// Package llmhttp holds the JSON-over-HTTP plumbing shared by the HTTP model
// backends and the remote card generator.
package llmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phrazzld/phrasify/internal/generation"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 8 << 20

// NewClient returns an HTTP client with the given request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// PostJSON marshals in, POSTs it to url and decodes a 2xx reply into out.
//
// Transport failures are returned unwrapped so a RetryPolicy treats them as
// transient. Non-2xx replies are classified with generation.StatusError and
// undecodable replies wrap generation.ErrInvalidResponse.
func PostJSON(ctx context.Context, client *http.Client, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", generation.ErrInvalidConfig, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return generation.StatusError(resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parsing response: %v", generation.ErrInvalidResponse, err)
	}
	return nil
}
