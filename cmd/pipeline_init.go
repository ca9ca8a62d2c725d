package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/config"
	"github.com/sells-group/georef-cli/internal/engine"
	"github.com/sells-group/georef-cli/internal/refpoint"
	"github.com/sells-group/georef-cli/internal/store"
	"github.com/sells-group/georef-cli/pkg/geocode"
	"github.com/sells-group/georef-cli/pkg/gisdb"
)

// pipelineEnv holds the wired collaborators for a resolution run.
type pipelineEnv struct {
	Store    store.Store
	Engine   *engine.Engine
	Geocoder geocode.Client

	pgPool *pgxpool.Pool
}

func (e *pipelineEnv) Close() {
	if e.pgPool != nil {
		e.pgPool.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline wires the engine from config: run store, geocoder cascade,
// endpoint registry, PLSS calibrations, and the discovery cache.
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	geocoder, pgPool, err := newGeocoder(ctx, cfg.Geocode)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	cleanup := func() {
		if pgPool != nil {
			pgPool.Close()
		}
		_ = st.Close()
	}

	registry, err := gisdb.LoadRegistry(cfg.GISDB.RegistryPath)
	if err != nil {
		cleanup()
		return nil, err
	}

	plss, err := initPLSS()
	if err != nil {
		cleanup()
		return nil, err
	}

	resolver := refpoint.NewResolver(geocoder, plss,
		refpoint.WithGeocodeTimeout(time.Duration(cfg.Geocode.TimeoutSecs)*time.Second),
	)

	engineOpts := []engine.Option{}
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		engineOpts = append(engineOpts, engine.WithDiscoveryCache(engine.NewRedisCache(client, ttl)))
		zap.L().Info("redis discovery cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	}

	return &pipelineEnv{
		Store:    st,
		Engine:   engine.New(registry, resolver, geocoder, engineOpts...),
		Geocoder: geocoder,
		pgPool:   pgPool,
	}, nil
}

// newGeocoder builds the rate-limited geocoding cascade, attaching the
// Postgres result cache when geocode.cache_database_url is set. The pool
// is nil when caching is disabled; the caller owns closing it. Pool
// connections are established lazily, so an unreachable cache database
// surfaces as cache misses rather than a startup failure.
func newGeocoder(ctx context.Context, gc config.GeocodeConfig) (geocode.Client, *pgxpool.Pool, error) {
	opts := []geocode.Option{geocode.WithRateLimit(gc.RateLimitPerSec)}

	var pool *pgxpool.Pool
	if gc.CacheDatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, gc.CacheDatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "parse geocode cache database url")
		}
		opts = append(opts, geocode.WithCache(pool, time.Duration(gc.CacheTTLHours)*time.Hour))
		zap.L().Info("geocode result cache enabled",
			zap.Int("ttl_hours", gc.CacheTTLHours),
		)
	}

	client := geocode.NewClient(
		[]geocode.Provider{geocode.NewNominatimProvider(gc.NominatimBaseURL)},
		opts...,
	)
	return client, pool, nil
}

// initPLSS builds the calibration chain: optional shapefile index first,
// then YAML calibrations, then the builtin tables.
func initPLSS() (*refpoint.PLSSResolver, error) {
	base, err := refpoint.LoadCalibrations(cfg.PLSS.CalibrationPath)
	if err != nil {
		return nil, err
	}
	if cfg.PLSS.ShapefilePath == "" {
		return base, nil
	}

	shp, err := refpoint.LoadShapefileCalibration(cfg.PLSS.ShapefilePath)
	if err != nil {
		return nil, err
	}
	return base.WithPriorityCalibration(shp), nil
}
