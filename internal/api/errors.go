package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/phrasify/internal/api/shared"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, generation.ErrInvalidConfig):
		return http.StatusBadRequest

	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, generation.ErrTransientFailure):
		return http.StatusServiceUnavailable

	case errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return "Invalid card generator configuration"
	case errors.Is(err, generation.ErrInvalidConfig):
		return "Unsupported card generator configuration"
	case errors.Is(err, generation.ErrContentBlocked):
		return "The language model refused to generate cards for this input"
	case errors.Is(err, context.DeadlineExceeded):
		return "Card generation timed out"
	case errors.Is(err, generation.ErrTransientFailure):
		return "The language model is temporarily unavailable"
	case errors.Is(err, generation.ErrInvalidResponse):
		return "The language model returned an unusable response"
	case errors.Is(err, generation.ErrGenerationFailed):
		return "Failed to generate cards"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
