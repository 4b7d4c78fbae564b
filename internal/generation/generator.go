package generation

import (
	"context"

	"github.com/phrazzld/phrasify/internal/domain"
)

// Generator produces translation cards derived from a seed card.
// This interface is the boundary between the card cache and external LLM
// services; it is slow, may fail, and may be rate limited.
type Generator interface {
	// GenerateCards creates up to n new cards based on seed. When n <= 0 the
	// generator's own default batch size is used.
	//
	// Errors always match ErrGenerationFailed; a reply that could not be
	// decoded matches ErrInvalidResponse as well. A partial list is never
	// returned together with an error.
	GenerateCards(ctx context.Context, seed domain.TranslationCard, n int) ([]domain.TranslationCard, error)

	// DefaultBatchSize is the number of cards produced when GenerateCards is
	// called with n <= 0.
	DefaultBatchSize() int
}
