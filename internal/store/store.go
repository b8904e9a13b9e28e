// Package store persists evaluations and caches fetched wind samples.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/config"
	"github.com/sells-group/windcover/internal/wind"
)

// ErrNotFound is returned when an evaluation ID does not exist.
var ErrNotFound = eris.New("store: evaluation not found")

// EvaluationFilter specifies criteria for listing evaluations.
type EvaluationFilter struct {
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f EvaluationFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for evaluations and the sample cache.
type Store interface {
	// Evaluations
	SaveEvaluation(ctx context.Context, eval *wind.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*wind.Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]wind.Evaluation, error)

	// Sample cache
	GetCachedSamples(ctx context.Context, key string) ([]wind.WindSample, bool, error)
	SetCachedSamples(ctx context.Context, key string, samples []wind.WindSample, ttl time.Duration) error
	DeleteExpiredSamples(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// prepare assigns an ID and creation time to an evaluation that has none.
func prepare(eval *wind.Evaluation, now time.Time) {
	if eval.ID == "" {
		eval.ID = uuid.New().String()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = now
	}
}

// Open returns the store selected by cfg.Driver and applies its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
