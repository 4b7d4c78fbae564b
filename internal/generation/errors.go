package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when card generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate cards")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrGenerationFailed)

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", ErrGenerationFailed)

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = fmt.Errorf("%w: transient error during card generation", ErrGenerationFailed)

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// wrapGenerationError makes sure err matches ErrGenerationFailed.
func wrapGenerationError(err error) error {
	if errors.Is(err, ErrGenerationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}
