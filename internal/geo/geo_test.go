package geo

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/wind"
)

func TestHaversine(t *testing.T) {
	a := wind.Point{Lat: 41.0, Lng: -96.0}
	assert.Zero(t, Haversine(a, a))

	// one degree of latitude is ~111.2 km
	b := wind.Point{Lat: 42.0, Lng: -96.0}
	assert.InDelta(t, 111195, Haversine(a, b), 10)
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestPointEWKB_RoundTrip(t *testing.T) {
	p := wind.Point{Lat: 41.2565, Lng: -95.9345}
	data, err := PointEWKB(p)
	require.NoError(t, err)
	// NDR byte order marker, then the EWKB point type with the SRID flag set
	assert.Equal(t, byte(0x01), data[0])
	assert.Len(t, data, 25)

	got, err := DecodePointEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodePointEWKB_Invalid(t *testing.T) {
	_, err := DecodePointEWKB([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func square(x, y, size float64) *shp.Polygon {
	return &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}, {X: x, Y: y},
		},
	}
}

func TestFootprintAndCentroid(t *testing.T) {
	mp := Footprint(square(-96.0, 41.0, 0.0002))
	require.NotNil(t, mp)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, SRID, mp.SRID())

	c, ok := Centroid(mp)
	require.True(t, ok)
	assert.InDelta(t, 41.0001, c.Lat, 1e-9)
	assert.InDelta(t, -95.9999, c.Lng, 1e-9)

	data, err := EncodeEWKB(mp)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFootprint_Unsupported(t *testing.T) {
	assert.Nil(t, Footprint(&shp.Point{X: 1, Y: 2}))
	assert.Nil(t, Footprint(nil))
	assert.Nil(t, Footprint(&shp.Polygon{}))

	_, ok := Centroid(nil)
	assert.False(t, ok)
}
