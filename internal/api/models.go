package api

import "github.com/phrazzld/phrasify/internal/domain"

// SessionHeader names the session a /v1/cards/next request belongs to.
// Requests in the same session get the same card for the same seed.
const SessionHeader = "X-Session-ID"

// MaxCardsPerRequest bounds n_cards on a direct generation request.
const MaxCardsPerRequest = 50

// CardGenerationRequest defines the payload for POST /v1/cards.
// Zero fields of CardGenerator are filled from the server's defaults.
type CardGenerationRequest struct {
	CardGenerator domain.GeneratorConfig `json:"card_generator" validate:"-"`
	Card          domain.TranslationCard `json:"card"           validate:"required"`

	// NCards overrides CardGenerator.NCards when set.
	NCards int `json:"n_cards,omitempty" validate:"gte=0,lte=50"`
}

// NextCardRequest defines the payload for POST /v1/cards/next.
type NextCardRequest struct {
	CardGenerator domain.GeneratorConfig `json:"card_generator" validate:"-"`
	Card          domain.TranslationCard `json:"card"           validate:"required"`
}

// NextCardResponse is returned by POST /v1/cards/next.
type NextCardResponse struct {
	Card      domain.TranslationCard `json:"card"`
	SessionID string                 `json:"session_id"`

	// Fallback is true when no card could be generated and the seed was
	// returned in its place.
	Fallback bool `json:"fallback"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
