package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/buildings"
	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/store"
	"github.com/sells-group/windcover/internal/wind"
	"github.com/sells-group/windcover/internal/windsource"
)

// appEnv holds the store, sources and estimator shared by the commands.
type appEnv struct {
	Store     store.Store
	Pool      *pgxpool.Pool // nil unless a Postgres-backed component is configured
	Wind      wind.WindSource
	Buildings wind.BuildingSource
	Estimator *wind.Estimator
	Location  *time.Location
	Opener    *fetcher.Opener
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// query returns a query for p and r with the configured turbine, scenario and
// building filter.
func (e *appEnv) query(p wind.Point, r wind.DateRange) wind.Query {
	return wind.Query{
		Point:    p,
		Range:    r,
		Turbine:  cfg.Turbine,
		Scenario: cfg.Scenario,
		Filter:   cfg.Filter(),
	}
}

func (e *appEnv) options() wind.Options {
	return wind.Options{Location: e.Location, Quality: cfg.Quality}
}

func needsPool() bool {
	return cfg.Store.Driver == "postgres" || cfg.Wind.Source == "postgres" || cfg.Buildings.Source == "postgis"
}

// initStoreEnv opens only the store. Used by commands that read saved
// evaluations.
func initStoreEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	loc, err := cfg.Location()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &appEnv{Store: st, Location: loc}, nil
}

// initEnv opens the store and builds the wind and building sources and the
// estimator. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("evaluate"); err != nil {
		return nil, err
	}
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	env := &appEnv{Location: loc, Opener: fetcher.NewOpener(cfg.Wind.UserAgent)}

	if needsPool() {
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		env.Pool = pool
	}

	if cfg.Store.Driver == "postgres" {
		st := store.NewPostgresFromPool(env.Pool)
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	} else {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st
	}

	if env.Wind, err = initWindSource(ctx, env); err != nil {
		env.Close()
		return nil, err
	}
	if env.Buildings, err = initBuildingSource(ctx, env); err != nil {
		env.Close()
		return nil, err
	}

	env.Estimator = wind.NewEstimator(env.Wind, env.Buildings, env.options())
	return env, nil
}

func initWindSource(ctx context.Context, env *appEnv) (wind.WindSource, error) {
	var src wind.WindSource
	switch cfg.Wind.Source {
	case "forecast":
		policy := cfg.RetryPolicy()
		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Wind.UserAgent,
			RateLimiters: fetcher.DefaultRateLimiters(),
			Retry:        &policy,
			MaxRetries:   policy.MaxAttempts,
		})
		src = windsource.NewForecastSource(cfg.Wind.ForecastURL, f)
	case "csv":
		return windsource.NewFileSource(cfg.Wind.CSVPath, cfg.Wind.UserAgent), nil
	case "postgres":
		if err := windsource.EnsureSchema(ctx, env.Pool); err != nil {
			return nil, err
		}
		src = windsource.NewPostgresSource(env.Pool, cfg.Wind.GridToleranceMeters)
	default:
		return nil, eris.Errorf("unknown wind source %q", cfg.Wind.Source)
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		zap.L().Debug("wind sample cache enabled", zap.Duration("ttl", ttl))
		src = windsource.NewCachedSource(src, env.Store, ttl, cfg.Wind.Source)
	}
	return src, nil
}

func initBuildingSource(ctx context.Context, env *appEnv) (wind.BuildingSource, error) {
	switch cfg.Buildings.Source {
	case "postgis":
		return buildings.NewPostGISSource(env.Pool), nil
	case "shapefile":
		fps, err := buildings.LoadShapefile(ctx, env.Opener, cfg.Buildings.ShapefilePath, "", buildings.DefaultFieldMap())
		if err != nil {
			return nil, err
		}
		return buildings.NewMemorySource(fps), nil
	default:
		return nil, eris.Errorf("unknown buildings source %q", cfg.Buildings.Source)
	}
}
