package windsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/geo"
	"github.com/sells-group/windcover/internal/wind"
)

func TestPostgresSource_Samples(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH nearest AS").
		WithArgs(site.Lng, site.Lat, 5000.0, janRange.Start, janRange.End).
		WillReturnRows(pgxmock.NewRows([]string{"ts", "u", "v"}).
			AddRow(jan1, 3.0, 4.0).
			AddRow(jan1.Add(time.Hour), 6.0, 8.0))

	samples, err := NewPostgresSource(mock, 5000).Samples(context.Background(), site, janRange)
	require.NoError(t, err)
	assert.Equal(t, []wind.WindSample{
		{Time: jan1, U: 3, V: 4},
		{Time: jan1.Add(time.Hour), U: 6, V: 8},
	}, samples)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH nearest AS").
		WillReturnRows(pgxmock.NewRows([]string{"ts", "u", "v"}))

	samples, err := NewPostgresSource(mock, 0).Samples(context.Background(), site, janRange)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH nearest AS").WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresSource(mock, 0).Samples(context.Background(), site, janRange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query wind.samples")
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS wind.samples").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, EnsureSchema(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRow(t *testing.T) {
	row, err := SampleRow(site, wind.WindSample{Time: jan1.In(time.FixedZone("CST", -6*3600)), U: 1, V: 2})
	require.NoError(t, err)
	require.Len(t, row, len(SampleColumns))

	pt, err := geo.DecodePointEWKB(row[2].([]byte))
	require.NoError(t, err)
	assert.Equal(t, site, pt)
	assert.Equal(t, jan1, row[3])
	assert.Equal(t, time.UTC, row[3].(time.Time).Location())
}
