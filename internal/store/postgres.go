package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/wind"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the store operations every evaluation touches.
var preparedStatements = map[string]string{
	"insert_evaluation":      insertEvaluationSQL,
	"get_evaluation":         `SELECT payload FROM evaluations WHERE id = $1`,
	"get_cached_samples":     `SELECT samples FROM sample_cache WHERE cache_key = $1 AND expires_at > now()`,
	"set_cached_samples":     setCachedSamplesSQL,
	"delete_expired_samples": `DELETE FROM sample_cache WHERE expires_at <= now()`,
}

const insertEvaluationSQL = `INSERT INTO evaluations (id, lat, lng, start_at, end_at, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`

const setCachedSamplesSQL = `INSERT INTO sample_cache (cache_key, samples, cached_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cache_key) DO UPDATE SET
  samples = EXCLUDED.samples, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller keeps ownership of it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that share it
// (the wind sample source and the building counter).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	start_at   TIMESTAMPTZ NOT NULL,
	end_at     TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_evaluations_point ON evaluations(lat, lng);

CREATE TABLE IF NOT EXISTS sample_cache (
	cache_key  TEXT PRIMARY KEY,
	samples    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sample_cache_expires_at ON sample_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, eval *wind.Evaluation) error {
	prepare(eval, time.Now().UTC())

	payload, err := json.Marshal(eval)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal evaluation")
	}

	_, err = s.pool.Exec(ctx, insertEvaluationSQL,
		eval.ID, eval.Point.Lat, eval.Point.Lng, eval.Range.Start, eval.Range.End,
		payload, eval.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert evaluation %s", eval.ID)
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id string) (*wind.Evaluation, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM evaluations WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get evaluation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get evaluation %s", id)
	}
	return decodeEvaluation(payload)
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]wind.Evaluation, error) {
	query := `SELECT payload FROM evaluations WHERE 1=1`
	var args []any
	argIdx := 1

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluations")
	}
	defer rows.Close()

	var evals []wind.Evaluation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation")
		}
		e, err := decodeEvaluation(payload)
		if err != nil {
			return nil, err
		}
		evals = append(evals, *e)
	}
	return evals, eris.Wrap(rows.Err(), "postgres: list evaluations iterate")
}

func (s *PostgresStore) GetCachedSamples(ctx context.Context, key string) ([]wind.WindSample, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT samples FROM sample_cache WHERE cache_key = $1 AND expires_at > now()`, key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get cached samples")
	}

	var samples []wind.WindSample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal cached samples")
	}
	return samples, true, nil
}

func (s *PostgresStore) SetCachedSamples(ctx context.Context, key string, samples []wind.WindSample, ttl time.Duration) error {
	raw, err := json.Marshal(samples)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal samples")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, setCachedSamplesSQL, key, raw, now, now.Add(ttl))
	return eris.Wrap(err, "postgres: set cached samples")
}

func (s *PostgresStore) DeleteExpiredSamples(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sample_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired samples")
	}
	return int(tag.RowsAffected()), nil
}
