package windsource

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/geo"
	"github.com/sells-group/windcover/internal/wind"
)

// Samples table layout. Each row is one u/v observation at a grid point.
const (
	SamplesSchema = "wind"
	SamplesTable  = "samples"
)

// SampleColumns is the COPY column order for wind.samples.
var SampleColumns = []string{"lat", "lng", "geom", "ts", "u", "v"}

const samplesDDL = `
CREATE SCHEMA IF NOT EXISTS wind;
CREATE TABLE IF NOT EXISTS wind.samples (
	lat  DOUBLE PRECISION NOT NULL,
	lng  DOUBLE PRECISION NOT NULL,
	geom geometry(Point, 4326) NOT NULL,
	ts   TIMESTAMPTZ NOT NULL,
	u    DOUBLE PRECISION NOT NULL,
	v    DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wind_samples_point_ts ON wind.samples (lat, lng, ts);
CREATE INDEX IF NOT EXISTS idx_wind_samples_geom ON wind.samples USING gist (geom);
`

// EnsureSchema creates the wind.samples table and its indexes.
func EnsureSchema(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, samplesDDL); err != nil {
		return eris.Wrap(err, "windsource: create wind.samples")
	}
	return nil
}

// SampleRow returns a COPY row for wind.samples in SampleColumns order.
func SampleRow(p wind.Point, s wind.WindSample) ([]any, error) {
	g, err := geo.PointEWKB(p)
	if err != nil {
		return nil, err
	}
	return []any{p.Lat, p.Lng, g, s.Time.UTC(), s.U, s.V}, nil
}

// The nearest grid point within the tolerance wins; its samples are returned
// in time order.
const nearestSamplesSQL = `
WITH nearest AS (
	SELECT lat, lng
	FROM wind.samples
	WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	ORDER BY geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
	LIMIT 1
)
SELECT s.ts, s.u, s.v
FROM wind.samples s
JOIN nearest n ON s.lat = n.lat AND s.lng = n.lng
WHERE s.ts >= $4 AND s.ts < $5
ORDER BY s.ts`

// PostgresSource reads samples ingested into wind.samples.
type PostgresSource struct {
	pool            db.Pool
	toleranceMeters float64
}

// NewPostgresSource returns a source that snaps queries to the nearest grid
// point within toleranceMeters.
func NewPostgresSource(pool db.Pool, toleranceMeters float64) *PostgresSource {
	if toleranceMeters <= 0 {
		toleranceMeters = 15000
	}
	return &PostgresSource{pool: pool, toleranceMeters: toleranceMeters}
}

// Samples returns the samples of the nearest grid point inside r.
func (s *PostgresSource) Samples(ctx context.Context, p wind.Point, r wind.DateRange) ([]wind.WindSample, error) {
	rows, err := s.pool.Query(ctx, nearestSamplesSQL, p.Lng, p.Lat, s.toleranceMeters, r.Start, r.End)
	if err != nil {
		return nil, eris.Wrap(err, "windsource: query wind.samples")
	}
	defer rows.Close()

	var samples []wind.WindSample
	for rows.Next() {
		var smp wind.WindSample
		if err := rows.Scan(&smp.Time, &smp.U, &smp.V); err != nil {
			return nil, eris.Wrap(err, "windsource: scan sample")
		}
		smp.Time = smp.Time.UTC()
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "windsource: iterate samples")
	}
	return samples, nil
}
