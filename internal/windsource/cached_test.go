package windsource

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/wind"
)

type memCache struct {
	entries map[string][]wind.WindSample
	getErr  error
	sets    int
}

func (m *memCache) GetCachedSamples(_ context.Context, key string) ([]wind.WindSample, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.entries[key]
	return s, ok, nil
}

func (m *memCache) SetCachedSamples(_ context.Context, key string, samples []wind.WindSample, _ time.Duration) error {
	m.sets++
	m.entries[key] = samples
	return nil
}

type countingSource struct {
	calls   atomic.Int32
	samples []wind.WindSample
	err     error
}

func (c *countingSource) Samples(context.Context, wind.Point, wind.DateRange) ([]wind.WindSample, error) {
	c.calls.Add(1)
	return c.samples, c.err
}

func TestCachedSource_HitAfterMiss(t *testing.T) {
	src := &countingSource{samples: []wind.WindSample{{Time: jan1, U: 3, V: 4}}}
	cache := &memCache{entries: map[string][]wind.WindSample{}}
	cs := NewCachedSource(src, cache, time.Hour, "forecast")

	for range 3 {
		got, err := cs.Samples(context.Background(), site, janRange)
		require.NoError(t, err)
		assert.Equal(t, src.samples, got)
	}
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, cache.sets)
}

func TestCachedSource_NearbyPointsShareKey(t *testing.T) {
	a := CacheKey("forecast", wind.Point{Lat: 41.25001, Lng: -95.93002}, janRange)
	b := CacheKey("forecast", wind.Point{Lat: 41.24999, Lng: -95.92998}, janRange)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, CacheKey("csv", site, janRange))
}

func TestCachedSource_EmptyNotCached(t *testing.T) {
	src := &countingSource{}
	cache := &memCache{entries: map[string][]wind.WindSample{}}
	cs := NewCachedSource(src, cache, time.Hour, "forecast")

	_, _ = cs.Samples(context.Background(), site, janRange)
	_, _ = cs.Samples(context.Background(), site, janRange)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Zero(t, cache.sets)
}

func TestCachedSource_CacheErrorFallsThrough(t *testing.T) {
	src := &countingSource{samples: []wind.WindSample{{Time: jan1, U: 1, V: 1}}}
	cache := &memCache{entries: map[string][]wind.WindSample{}, getErr: errors.New("database is locked")}

	got, err := NewCachedSource(src, cache, time.Hour, "x").Samples(context.Background(), site, janRange)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedSource_SourceErrorPropagates(t *testing.T) {
	src := &countingSource{err: errors.New("upstream down")}
	cache := &memCache{entries: map[string][]wind.WindSample{}}

	_, err := NewCachedSource(src, cache, time.Hour, "x").Samples(context.Background(), site, janRange)
	assert.EqualError(t, err, "upstream down")
}
