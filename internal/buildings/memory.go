package buildings

import (
	"context"

	"github.com/sells-group/windcover/internal/geo"
	"github.com/sells-group/windcover/internal/wind"
)

// MemorySource counts footprints held in memory, typically read from a
// shapefile for an offline run.
type MemorySource struct {
	footprints []Footprint
}

// NewMemorySource returns a source over footprints.
func NewMemorySource(footprints []Footprint) *MemorySource {
	return &MemorySource{footprints: footprints}
}

// Len returns the number of loaded footprints.
func (m *MemorySource) Len() int { return len(m.footprints) }

// Summary implements wind.BuildingSource.
func (m *MemorySource) Summary(_ context.Context, p wind.Point, f wind.BuildingFilter) (*wind.BuildingSummary, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	count := 0
	for _, fp := range m.footprints {
		if fp.Qualifies(f) && geo.Haversine(p, fp.Centroid) <= f.RadiusMeters {
			count++
		}
	}
	return summary(count, f), nil
}
