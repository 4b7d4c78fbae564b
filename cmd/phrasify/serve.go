package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/phrasify/internal/api"
	apiMiddleware "github.com/phrazzld/phrasify/internal/api/middleware"
	"github.com/phrazzld/phrasify/internal/cardgen"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the card generation server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx := cmd.Context()
			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			app.inProcess = true
			return app.serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

// handler builds the HTTP API around factories.
func (app *application) handler(factories *cardgen.FactoryCache) http.Handler {
	cards := api.NewCardHandler(app.buildGenerator, factories, app.defaults(), app.logger)

	var authMiddleware *apiMiddleware.AuthMiddleware
	if app.tokens != nil {
		authMiddleware = apiMiddleware.NewAuthMiddleware(app.tokens)
	}

	return api.NewRouter(api.RouterConfig{
		Cards:    cards,
		Auth:     authMiddleware,
		Gatherer: app.registry,
		Logger:   app.logger,
	})
}

// serve runs the HTTP server until ctx is canceled, then shuts down within
// the configured timeout.
func (app *application) serve(ctx context.Context) error {
	factories, err := app.newFactoryCache()
	if err != nil {
		app.cleanup(ctx)
		return err
	}
	factories.Start()

	if err := app.prompts.Watch(ctx); err != nil {
		app.logger.Warn("prompt hot reload disabled", slog.String("error", err.Error()))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.handler(factories),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("starting server",
			slog.Int("port", app.config.Server.Port),
			slog.Bool("auth", app.tokens != nil),
			slog.String("backend", app.config.Cache.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.Worker.ShutdownTimeout)
		defer cancel()

		var shutdownErr error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
		}
		factories.Stop()
		app.cleanup(shutdownCtx)
		app.logger.Info("server shutdown completed")
		return shutdownErr
	})
	return g.Wait()
}
