package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/windsource"
)

func TestPostgresWriter_WriteSamples(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{windsource.SamplesSchema, windsource.SamplesTable}, windsource.SampleColumns).
		WillReturnResult(2)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := NewPostgresWriter(mock).WriteSamples(context.Background(), []Message{
		{Lat: 41.5, Lng: -70.6, Timestamp: ts, U: 3, V: 4},
		{Lat: 41.5, Lng: -70.6, Timestamp: ts.Add(time.Hour), U: 1, V: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewPostgresWriter(mock).WriteSamples(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
