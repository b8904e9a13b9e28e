package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/windcover/internal/wind"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Times are stored as unix nanoseconds so ordering and expiry compare as integers.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	start_at   INTEGER NOT NULL,
	end_at     INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sample_cache (
	cache_key  TEXT PRIMARY KEY,
	samples    TEXT NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
CREATE INDEX IF NOT EXISTS idx_sample_cache_expires_at ON sample_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, eval *wind.Evaluation) error {
	prepare(eval, s.now())

	payload, err := json.Marshal(eval)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal evaluation")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, lat, lng, start_at, end_at, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		eval.ID, eval.Point.Lat, eval.Point.Lng,
		eval.Range.Start.UnixNano(), eval.Range.End.UnixNano(),
		string(payload), eval.CreatedAt.UnixNano(),
	)
	return eris.Wrap(err, "sqlite: insert evaluation")
}

func (s *SQLiteStore) GetEvaluation(ctx context.Context, id string) (*wind.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM evaluations WHERE id = ?`, id)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get evaluation %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get evaluation")
	}
	return decodeEvaluation([]byte(payload))
}

func (s *SQLiteStore) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]wind.Evaluation, error) {
	query := `SELECT payload FROM evaluations WHERE 1=1`
	var args []any

	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UnixNano())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluations")
	}
	defer rows.Close()

	var evals []wind.Evaluation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evaluation")
		}
		e, err := decodeEvaluation([]byte(payload))
		if err != nil {
			return nil, err
		}
		evals = append(evals, *e)
	}
	return evals, eris.Wrap(rows.Err(), "sqlite: list evaluations iterate")
}

func (s *SQLiteStore) GetCachedSamples(ctx context.Context, key string) ([]wind.WindSample, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT samples FROM sample_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	)

	var raw string
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get cached samples")
	}

	var samples []wind.WindSample
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal cached samples")
	}
	return samples, true, nil
}

func (s *SQLiteStore) SetCachedSamples(ctx context.Context, key string, samples []wind.WindSample, ttl time.Duration) error {
	raw, err := json.Marshal(samples)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal samples")
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sample_cache (cache_key, samples, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET
		   samples = excluded.samples, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, string(raw), now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	return eris.Wrap(err, "sqlite: set cached samples")
}

func (s *SQLiteStore) DeleteExpiredSamples(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sample_cache WHERE expires_at <= ?`, s.now().UnixNano(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired samples")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func decodeEvaluation(payload []byte) (*wind.Evaluation, error) {
	var e wind.Evaluation
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal evaluation")
	}
	return &e, nil
}
