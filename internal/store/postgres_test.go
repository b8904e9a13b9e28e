package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/config"
	"github.com/sells-group/windcover/internal/wind"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := NewPostgresFromPool(mock)
	return s, mock
}

func testStoreConfig(path string) config.StoreConfig {
	return config.StoreConfig{Driver: "sqlite", DatabaseURL: path}
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS evaluations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveEvaluation(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	eval := testEvaluation()

	mock.ExpectExec(`INSERT INTO evaluations`).
		WithArgs(pgxmock.AnyArg(), 41.5, -70.6, eval.Range.Start, eval.Range.End, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveEvaluation(context.Background(), eval))
	assert.NotEmpty(t, eval.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvaluation(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	eval := testEvaluation()
	eval.ID = "abc"
	payload, err := json.Marshal(eval)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE id = \$1`).
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetEvaluation(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 120, got.Buildings.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvaluation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetEvaluation(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEvaluations_WithFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(testEvaluation())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE 1=1 AND created_at >= \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(since, 5, 10).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload).AddRow(payload))

	evals, err := s.ListEvaluations(context.Background(), EvaluationFilter{Since: since, Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, evals, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEvaluations_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$1$`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	evals, err := s.ListEvaluations(context.Background(), EvaluationFilter{})
	require.NoError(t, err)
	assert.Empty(t, evals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedSamples_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT samples FROM sample_cache`).
		WithArgs("key").
		WillReturnError(pgx.ErrNoRows)

	samples, ok, err := s.GetCachedSamples(context.Background(), "key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, samples)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedSamples_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	raw, err := json.Marshal([]wind.WindSample{{Time: jan1, U: 3, V: 4}})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT samples FROM sample_cache`).
		WithArgs("key").
		WillReturnRows(pgxmock.NewRows([]string{"samples"}).AddRow(raw))

	samples, ok, err := s.GetCachedSamples(context.Background(), "key")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, samples, 1)
	assert.InDelta(t, 4.0, samples[0].V, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedSamples_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(cache_key\) DO UPDATE`).
		WithArgs("key", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCachedSamples(context.Background(), "key", []wind.WindSample{{Time: jan1}}, time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredSamples(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM sample_cache WHERE expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := s.DeleteExpiredSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Pool(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	assert.Equal(t, mock, s.Pool())
}
