// Package buildings counts qualifying building footprints around a point and
// loads footprint inventories into PostGIS.
package buildings

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/wind"
)

// Footprint is one building outline with its detection confidence and height.
type Footprint struct {
	SourceID     string
	Centroid     wind.Point
	Confidence   float64
	HeightMeters float64
	Geometry     *geom.MultiPolygon
}

// Qualifies reports whether f passes the confidence and height thresholds.
func (f Footprint) Qualifies(filter wind.BuildingFilter) bool {
	return f.Confidence >= filter.MinConfidence && f.HeightMeters >= filter.MinHeightMeters
}

const footprintsDDL = `
CREATE SCHEMA IF NOT EXISTS buildings;
CREATE TABLE IF NOT EXISTS buildings.footprints (
	source_id  TEXT PRIMARY KEY,
	confidence DOUBLE PRECISION NOT NULL,
	height_m   DOUBLE PRECISION NOT NULL,
	centroid   geometry(Point, 4326) NOT NULL,
	geom       geometry(MultiPolygon, 4326)
);
CREATE INDEX IF NOT EXISTS idx_footprints_centroid ON buildings.footprints USING gist ((centroid::geography));
`

// EnsureSchema creates buildings.footprints and its spatial index.
func EnsureSchema(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, footprintsDDL); err != nil {
		return eris.Wrap(err, "buildings: create buildings.footprints")
	}
	return nil
}

func summary(count int, f wind.BuildingFilter) *wind.BuildingSummary {
	return &wind.BuildingSummary{
		Count:           count,
		RadiusMeters:    f.RadiusMeters,
		MinConfidence:   f.MinConfidence,
		MinHeightMeters: f.MinHeightMeters,
	}
}

func validateFilter(f wind.BuildingFilter) error {
	if f.RadiusMeters <= 0 {
		return eris.Wrapf(wind.ErrInvalidQuery, "buildings: radius must be positive (got %g)", f.RadiusMeters)
	}
	return nil
}
