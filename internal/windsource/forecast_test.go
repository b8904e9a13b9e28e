package windsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/resilience"
	"github.com/sells-group/windcover/internal/wind"
)

func testFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: "test",
		Retry:     &resilience.RetryConfig{InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	})
}

func TestForecastSource_Samples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "41.2500", q.Get("latitude"))
		assert.Equal(t, "-95.9300", q.Get("longitude"))
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-02", q.Get("end_date"))
		assert.Equal(t, "wind_speed_100m,wind_direction_100m", q.Get("hourly"))
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{
			"latitude": 41.25, "longitude": -95.93,
			"hourly": {
				"time": ["2024-01-01T00:00", "2024-01-01T01:00", "2024-01-01T02:00", "2024-01-03T00:00"],
				"wind_speed_100m": [10, null, 5, 7],
				"wind_direction_100m": [270, 90, 0, 180]
			}
		}`))
	}))
	defer srv.Close()

	src := NewForecastSource(srv.URL, testFetcher())
	samples, err := src.Samples(context.Background(), site, janRange)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, jan1, samples[0].Time)
	assert.InDelta(t, 10, samples[0].U, 1e-9)
	assert.InDelta(t, 0, samples[0].V, 1e-9)

	assert.Equal(t, jan1.Add(2*time.Hour), samples[1].Time)
	assert.InDelta(t, 0, samples[1].U, 1e-9)
	assert.InDelta(t, -5, samples[1].V, 1e-9)
}

func TestForecastSource_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": true, "reason": "Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	_, err := NewForecastSource(srv.URL, testFetcher()).Samples(context.Background(), site, janRange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of allowed range")
}

func TestForecastSource_MismatchedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"time": ["2024-01-01T00:00"], "wind_speed_100m": [], "wind_direction_100m": [1]}}`))
	}))
	defer srv.Close()

	_, err := NewForecastSource(srv.URL, testFetcher()).Samples(context.Background(), site, janRange)
	assert.ErrorContains(t, err, "arrays disagree")
}

func TestForecastSource_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewForecastSource(srv.URL, testFetcher()).Samples(context.Background(), site, janRange)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestComponents(t *testing.T) {
	tests := []struct {
		name         string
		speed, dir   float64
		wantU, wantV float64
	}{
		{"from north blows south", 10, 0, 0, -10},
		{"from east blows west", 10, 90, -10, 0},
		{"from south blows north", 10, 180, 0, 10},
		{"from west blows east", 10, 270, 10, 0},
		{"calm", 0, 123, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := Components(tt.speed, tt.dir)
			assert.InDelta(t, tt.wantU, u, 1e-9)
			assert.InDelta(t, tt.wantV, v, 1e-9)
			assert.InDelta(t, tt.speed, wind.Speed(u, v), 1e-9)
		})
	}
}

func TestNewForecastSource_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultForecastURL, NewForecastSource("", nil).BaseURL)
}
