package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baaakgun4543/unlurk/internal/events"
	"github.com/baaakgun4543/unlurk/internal/handler"
	"github.com/baaakgun4543/unlurk/internal/metrics"
	"github.com/baaakgun4543/unlurk/internal/middleware"
	"github.com/baaakgun4543/unlurk/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the draft HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			if port > 0 {
				a.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	d := a.dispatcher()
	if d.Configured() {
		a.logger.Info().Str("backend", string(d.Backend())).Str("model", d.Model()).Msg("provider configured")
	} else {
		a.logger.Warn().Msg("no provider configured, drafts will fail with not_configured")
	}
	metrics.SetAvailable(d.Backend(), d.Available(ctx))

	var pub events.Publisher = events.NopPublisher{}
	if a.cfg.AMQPURL != "" {
		p, err := events.DialAMQP(a.cfg.AMQPURL)
		if err != nil {
			return err
		}
		pub = p
		a.logger.Info().Str("exchange", events.Exchange).Msg("publishing events")
	}
	defer pub.Close()

	if a.cfg.ServerAPIKey != "" {
		a.logger.Info().Msg("auth: API key required (X-API-Key header)")
	} else {
		a.logger.Info().Msg("auth: disabled (no server_api_key configured)")
	}

	rl := middleware.NewRateLimiter(a.cfg.RateLimit, a.cfg.RateWindow)
	h := server.SetupMux(server.Deps{
		Generator: d,
		Emitter:   handler.Emitter{Publisher: pub, Logger: a.logger},
		Template:  a.template,
		Options: middleware.Options{
			Logger:       a.logger,
			RateLimiter:  rl,
			APIKey:       a.cfg.ServerAPIKey,
			AllowOrigin:  a.cfg.CORSOrigin,
			MaxBodyBytes: a.cfg.MaxBodyBytes,
			Timeout:      a.cfg.Timeout,
		},
	})
	return server.Run(ctx, fmt.Sprintf(":%d", a.cfg.Port), h, rl, a.logger)
}
