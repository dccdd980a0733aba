package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/skill-recommender/internal/cache"
	"github.com/jonathan/skill-recommender/internal/config"
	"github.com/jonathan/skill-recommender/internal/db"
	"github.com/jonathan/skill-recommender/internal/metrics"
	"github.com/jonathan/skill-recommender/internal/recommender"
	"github.com/jonathan/skill-recommender/internal/types"
	"github.com/jonathan/skill-recommender/internal/upstream"
)

var errNoUpstream = errors.New("upstream.url is required to fetch user data")

// runtime wires the data sources shared by the commands.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Recorder

	// client is nil when no upstream URL is configured.
	client   *upstream.Client
	catalogs recommender.CatalogLoader
	// cached is set once the Redis cache is actually in front of catalogs.
	cached bool

	closers []func()
}

// newRuntime connects the configured catalog source, optionally behind the
// Redis cache. rec may be nil.
func newRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger, rec *metrics.Recorder) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, metrics: rec}

	if cfg.Upstream.URL != "" {
		opts := []upstream.ClientOption{upstream.WithLogger(logger.With().Str("component", "upstream").Logger())}
		if rec != nil {
			opts = append(opts, upstream.WithObserver(rec))
		}
		client, err := upstream.NewClient(&upstream.Options{
			BaseURL:         cfg.Upstream.URL,
			AdminPassword:   cfg.Upstream.AdminPassword,
			Timeout:         time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			Concurrency:     cfg.Upstream.Concurrency,
			BreakerTimeout:  time.Duration(cfg.Upstream.BreakerOpenSecs) * time.Second,
			BreakerFailures: cfg.Upstream.BreakerFailures,
		}, opts...)
		if err != nil {
			return nil, err
		}
		rt.client = client
	}

	var source cache.CatalogSource
	switch cfg.CatalogSource {
	case config.SourcePostgres:
		pg, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect catalog database: %w", err)
		}
		rt.closers = append(rt.closers, pg.Close)
		source = pg
	default:
		if rt.client == nil {
			return nil, errNoUpstream
		}
		source = rt.client
	}
	rt.catalogs = source

	if cfg.Redis.Addr != "" {
		store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("catalog cache unavailable, loading uncached")
		} else {
			rt.closers = append(rt.closers, func() { _ = store.Close() })
			rt.catalogs = cache.NewCatalogCache(source, store,
				time.Duration(cfg.Redis.TTLSeconds)*time.Second,
				logger.With().Str("component", "cache").Logger())
			rt.cached = true
		}
	}

	logger.Debug().
		Str("catalog_source", cfg.CatalogSource).
		Bool("cached", rt.cached).
		Bool("upstream", rt.client != nil).
		Msg("runtime ready")
	return rt, nil
}

// recommender builds an untrained recommender for kind.
func (rt *runtime) recommender(kind types.ItemKind) *recommender.Recommender {
	desc := recommender.Positions()
	if kind == types.KindCertificates {
		desc = recommender.Certificates(rt.cfg.Recommender.ProviderBonus)
	}
	opts := []recommender.Option{recommender.WithLogger(rt.logger)}
	if rt.metrics != nil {
		opts = append(opts, recommender.WithRecorder(rt.metrics))
	}
	return recommender.New(desc, rt.cfg.Recommender.Weights, opts...)
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func parseKind(s string) (types.ItemKind, error) {
	kind := types.ItemKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q (want %s or %s)", s, types.KindCertificates, types.KindPositions)
	}
	return kind, nil
}
