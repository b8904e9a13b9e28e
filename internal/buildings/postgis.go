package buildings

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/wind"
)

const countSQL = `
SELECT count(*)
FROM buildings.footprints
WHERE ST_DWithin(centroid::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
  AND confidence >= $4
  AND height_m >= $5`

// PostGISSource counts footprints stored in buildings.footprints.
type PostGISSource struct {
	pool db.Pool
}

// NewPostGISSource returns a source backed by pool.
func NewPostGISSource(pool db.Pool) *PostGISSource {
	return &PostGISSource{pool: pool}
}

// Summary implements wind.BuildingSource.
func (s *PostGISSource) Summary(ctx context.Context, p wind.Point, f wind.BuildingFilter) (*wind.BuildingSummary, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	var count int64
	err := s.pool.QueryRow(ctx, countSQL, p.Lng, p.Lat, f.RadiusMeters, f.MinConfidence, f.MinHeightMeters).Scan(&count)
	if err != nil {
		return nil, eris.Wrap(err, "buildings: count footprints")
	}

	zap.L().Debug("buildings: postgis count",
		zap.Float64("lat", p.Lat),
		zap.Float64("lng", p.Lng),
		zap.Float64("radius_m", f.RadiusMeters),
		zap.Int64("count", count),
	)
	return summary(int(count), f), nil
}
