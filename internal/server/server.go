// Package server assembles the HTTP handler tree and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/baaakgun4543/unlurk/internal/handler"
	"github.com/baaakgun4543/unlurk/internal/middleware"
)

// Routes served by SetupMux. Metrics labels use these paths verbatim.
var Routes = []string{
	"/api/draft",
	"/api/prompt",
	"/api/post",
	"/api/health",
	"/api/providers",
	"/metrics",
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Generator handler.Generator
	Emitter   handler.Emitter
	Template  string
	Options   middleware.Options
}

// SetupMux wires handlers with the full middleware chain.
func SetupMux(d Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/draft", handler.Draft(d.Generator, d.Template, d.Emitter))
	mux.HandleFunc("/api/prompt", handler.Prompt(d.Template))
	mux.HandleFunc("/api/post", handler.Post(d.Emitter))
	mux.HandleFunc("/api/health", handler.Health(d.Generator))
	mux.HandleFunc("/api/providers", handler.Providers(d.Generator))
	mux.Handle("/metrics", promhttp.Handler())

	opts := d.Options
	opts.Paths = Routes
	return middleware.Chain(mux, opts)
}

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
// When rl is non-nil its idle keys are swept periodically.
func Run(ctx context.Context, addr string, h http.Handler, rl *middleware.RateLimiter, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("unlurk api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info().Msg("server stopped")
		return nil
	})
	if rl != nil {
		g.Go(func() error {
			t := time.NewTicker(sweepInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					rl.Sweep()
				}
			}
		})
	}
	return g.Wait()
}
