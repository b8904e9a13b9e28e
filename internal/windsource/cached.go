package windsource

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/wind"
)

// SampleCache stores fetched samples by key. store.Store implements it.
type SampleCache interface {
	GetCachedSamples(ctx context.Context, key string) ([]wind.WindSample, bool, error)
	SetCachedSamples(ctx context.Context, key string, samples []wind.WindSample, ttl time.Duration) error
}

// CachedSource serves repeated queries for the same site and period from a
// cache. Cache failures are logged and fall through to the wrapped source.
type CachedSource struct {
	source wind.WindSource
	cache  SampleCache
	ttl    time.Duration
	name   string
}

// NewCachedSource wraps source. name separates cache entries of different
// upstream sources.
func NewCachedSource(source wind.WindSource, cache SampleCache, ttl time.Duration, name string) *CachedSource {
	return &CachedSource{source: source, cache: cache, ttl: ttl, name: name}
}

// CacheKey rounds the point to about 100 m so nearby queries share an entry.
func CacheKey(name string, p wind.Point, r wind.DateRange) string {
	return fmt.Sprintf("%s|%.3f,%.3f|%s|%s", name, p.Lat, p.Lng,
		r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339))
}

// Samples implements wind.WindSource.
func (c *CachedSource) Samples(ctx context.Context, p wind.Point, r wind.DateRange) ([]wind.WindSample, error) {
	key := CacheKey(c.name, p, r)
	log := zap.L().With(zap.String("component", "windsource.cache"), zap.String("key", key))

	cached, ok, err := c.cache.GetCachedSamples(ctx, key)
	switch {
	case err != nil:
		log.Warn("sample cache read failed", zap.Error(err))
	case ok:
		log.Debug("sample cache hit", zap.Int("samples", len(cached)))
		return cached, nil
	}

	samples, err := c.source.Samples(ctx, p, r)
	if err != nil {
		return nil, err
	}
	// empty results are not cached so a later backfill is picked up
	if len(samples) > 0 {
		if err := c.cache.SetCachedSamples(ctx, key, samples, c.ttl); err != nil {
			log.Warn("sample cache write failed", zap.Error(err))
		}
	}
	return samples, nil
}
