// Package geo holds the distance and geometry helpers shared by the building
// and wind sample stores.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/windcover/internal/wind"
)

// SRID is WGS84, used for every geometry written to PostGIS.
const SRID = 4326

const earthRadiusMeters = 6371008.8

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b wind.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PointEWKB encodes p as a little-endian EWKB point with SRID 4326, the
// format PostGIS accepts in COPY.
func PointEWKB(p wind.Point) ([]byte, error) {
	g := geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(SRID)
	return EncodeEWKB(g)
}

// EncodeEWKB marshals g as little-endian EWKB.
func EncodeEWKB(g geom.T) ([]byte, error) {
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode EWKB")
	}
	return data, nil
}

// DecodePointEWKB is the inverse of PointEWKB.
func DecodePointEWKB(data []byte) (wind.Point, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return wind.Point{}, eris.Wrap(err, "geo: decode EWKB")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return wind.Point{}, eris.Errorf("geo: expected point, got %T", g)
	}
	return wind.Point{Lat: pt.Y(), Lng: pt.X()}, nil
}
