package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry defaults used when a policy leaves a field unset.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// RetryPolicy retries transient LLM failures with exponential backoff.
// The delay before retry i is BaseDelay * 2^i with up to 50% jitter.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NewRetryPolicy builds a policy from configuration values, falling back to
// the defaults for invalid ones.
func NewRetryPolicy(maxRetries, delaySeconds int) RetryPolicy {
	p := RetryPolicy{MaxRetries: maxRetries, BaseDelay: time.Duration(delaySeconds) * time.Second}
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryDelay
	}
	return p
}

// Do calls fn until it succeeds, fails permanently, or retries run out.
//
// Errors matching ErrContentBlocked, ErrInvalidResponse or ErrInvalidConfig
// are permanent and returned as is. Anything else is retried; once the
// retries are exhausted, or ctx ends while waiting, an ErrTransientFailure is
// returned.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	backoff := retry.NewExponential(p.BaseDelay)
	backoff = retry.WithJitterPercent(50, backoff)
	backoff = retry.WithMaxRetries(uint64(p.MaxRetries), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		logger.DebugContext(ctx, "making llm call",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.MaxRetries+1))

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			logger.WarnContext(ctx, "permanent error occurred, not retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return err
		}

		logger.WarnContext(ctx, "llm call failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		return nil
	case isPermanent(err):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrTransientFailure, ctx.Err())
	default:
		return fmt.Errorf("%w: exceeded maximum retry attempts (%d): %w", ErrTransientFailure, p.MaxRetries, err)
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrInvalidConfig)
}

// StatusError classifies a non-2xx reply from an HTTP model backend.
// Rate limits and server errors are transient; authentication and other
// client errors are configuration problems and are not retried. 422 is what
// the phrasify server answers when the model refused the seed.
func StatusError(code int, body string) error {
	body = truncate(body, 200)
	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrTransientFailure, code, body)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidConfig, code, body)
	case code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d: %s", ErrContentBlocked, code, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, code, body)
	}
}
