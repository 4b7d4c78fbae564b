package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/phrasify/internal/api/shared"
	"github.com/phrazzld/phrasify/internal/cardgen"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/platform/logger"
	"github.com/phrazzld/phrasify/internal/redact"
)

// GeneratorBuilder creates the generator for a fully defaulted config.
type GeneratorBuilder func(ctx context.Context, cfg domain.GeneratorConfig) (generation.Generator, error)

// CardHandler handles card generation HTTP requests
type CardHandler struct {
	build     GeneratorBuilder
	factories *cardgen.FactoryCache
	defaults  domain.GeneratorConfig
	logger    *slog.Logger
}

// NewCardHandler creates a new CardHandler. defaults fill the zero fields of
// every requested generator config.
func NewCardHandler(
	build GeneratorBuilder,
	factories *cardgen.FactoryCache,
	defaults domain.GeneratorConfig,
	logger *slog.Logger,
) *CardHandler {
	if build == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generator builder cannot be nil for CardHandler")
	}
	if factories == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("factory cache cannot be nil for CardHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		build:     build,
		factories: factories,
		defaults:  defaults,
		logger:    logger.With(slog.String("component", "card_handler")),
	}
}

// GenerateCards handles POST /v1/cards requests.
// It calls the generator directly and returns the whole batch; the cache is
// not involved.
func (h *CardHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CardGenerationRequest
	if !h.decode(w, r, &req) {
		return
	}

	cfg, ok := h.config(w, r, req.CardGenerator)
	if !ok {
		return
	}
	n := req.NCards
	if n == 0 {
		n = cfg.NCards
	}

	gen, err := h.build(r.Context(), cfg)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	cards, err := gen.GenerateCards(r.Context(), req.Card, n)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Info("generated cards",
		slog.String("config", cfg.PathFriendly()),
		slog.Int("requested", n),
		slog.Int("generated", len(cards)))

	if cards == nil {
		cards = []domain.TranslationCard{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// NextCard handles POST /v1/cards/next requests.
// It serves one card for the seed from the replenishing cache. The session
// comes from the X-Session-ID header; a new one is created when it is absent
// and returned in the header and body.
func (h *CardHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req NextCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	cfg, ok := h.config(w, r, req.CardGenerator)
	if !ok {
		return
	}

	session := r.Header.Get(SessionHeader)
	if session == "" {
		session = uuid.NewString()
	}

	factory, err := h.factories.Get(r.Context(), session, cfg)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	card := factory.Take(r.Context(), req.Card)
	fallback := card == req.Card
	if fallback {
		log.Warn("serving seed as fallback card",
			slog.String("session", session),
			slog.String("config", cfg.PathFriendly()))
	}

	w.Header().Set(SessionHeader, session)
	shared.RespondWithJSON(w, r, http.StatusOK, NextCardResponse{
		Card:      card,
		SessionID: session,
		Fallback:  fallback,
	})
}

// EndSession handles DELETE /v1/sessions/{id} requests.
// It drops the card factories memoized for the session.
func (h *CardHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "id")
	if session == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Session ID is required")
		return
	}
	h.factories.EndSession(session)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		msg := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			msg = "Request body is required"
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msg, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+redact.Error(err))
		return false
	}
	return true
}

func (h *CardHandler) config(w http.ResponseWriter, r *http.Request, requested domain.GeneratorConfig) (domain.GeneratorConfig, bool) {
	cfg := requested.WithDefaults(h.defaults)
	if err := cfg.Validate(); err != nil {
		HandleAPIError(w, r, fmt.Errorf("card generator: %w", err))
		return cfg, false
	}
	return cfg, true
}
