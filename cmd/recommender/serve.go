package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/skill-recommender/internal/config"
	"github.com/jonathan/skill-recommender/internal/metrics"
	"github.com/jonathan/skill-recommender/internal/recommender"
	"github.com/jonathan/skill-recommender/internal/server"
	"github.com/jonathan/skill-recommender/internal/types"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation HTTP API",
		Long:  "Loads both catalogs, trains the certificate and position models and serves recommendations until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides config and PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	rt, err := newRuntime(ctx, cfg, logger, rec)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.client == nil {
		return errNoUpstream
	}

	certs := rt.recommender(types.KindCertificates)
	positions := rt.recommender(types.KindPositions)

	// A kind that fails here stays untrained; /health reports it and
	// /admin/retrain can recover it.
	if err := recommender.Refresh(ctx, rt.catalogs, false, certs, positions); err != nil {
		logger.Error().Err(err).Msg("initial training incomplete")
	}

	srv, err := server.New(cfg, server.Deps{
		Bundles:      rt.client,
		Certificates: certs,
		Positions:    positions,
		Catalogs:     rt.catalogs,
		Metrics:      rec,
		BreakerState: func() string { return rt.client.BreakerState().String() },
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
