package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/wind"
)

// Footprint converts a shapefile polygon to a MultiPolygon. Other shape types
// return nil.
func Footprint(shape shp.Shape) *geom.MultiPolygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || start >= end {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Centroid returns the vertex average of the outer ring of the first polygon
// in mp. Building footprints are small enough that this sits inside the
// shape for any distance filter windcover applies.
func Centroid(mp *geom.MultiPolygon) (wind.Point, bool) {
	if mp == nil || mp.NumPolygons() == 0 {
		return wind.Point{}, false
	}
	ring := mp.Polygon(0).LinearRing(0)
	n := ring.NumCoords()
	if n == 0 {
		return wind.Point{}, false
	}
	// closed rings repeat the first vertex
	if n > 1 && ring.Coord(0).Equal(geom.XY, ring.Coord(n-1)) {
		n--
	}

	var sx, sy float64
	for i := 0; i < n; i++ {
		c := ring.Coord(i)
		sx += c.X()
		sy += c.Y()
	}
	return wind.Point{Lat: sy / float64(n), Lng: sx / float64(n)}, true
}

// FieldIndex returns the index of a DBF field, or -1.
func FieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
