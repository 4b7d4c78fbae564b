package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/phrasify/internal/api/middleware"
	"github.com/phrazzld/phrasify/internal/api/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Cards *CardHandler

	// Auth protects /v1 when set.
	Auth *apiMiddleware.AuthMiddleware

	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth.Authenticate)
		}
		r.Post("/cards", cfg.Cards.GenerateCards)
		r.Post("/cards/next", cfg.Cards.NextCard)
		r.Delete("/sessions/{id}", cfg.Cards.EndSession)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
