package windsource

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/wind"
)

// DefaultForecastURL is the Open-Meteo historical archive endpoint.
const DefaultForecastURL = "https://archive-api.open-meteo.com/v1/archive"

const (
	speedVar     = "wind_speed_100m"
	directionVar = "wind_direction_100m"
	hourLayout   = "2006-01-02T15:04"
	dateLayout   = "2006-01-02"
)

// ForecastSource reads hourly 100 m wind from an Open-Meteo compatible API.
// Retry, rate limiting and circuit breaking live in the fetcher.
type ForecastSource struct {
	BaseURL string
	Fetcher fetcher.Fetcher
}

// NewForecastSource returns a source for baseURL; an empty baseURL uses the
// public archive.
func NewForecastSource(baseURL string, f fetcher.Fetcher) *ForecastSource {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &ForecastSource{BaseURL: baseURL, Fetcher: f}
}

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time      []string   `json:"time"`
		Speed     []*float64 `json:"wind_speed_100m"`
		Direction []*float64 `json:"wind_direction_100m"`
	} `json:"hourly"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Samples fetches hourly speed and direction and converts them to u/v.
func (s *ForecastSource) Samples(ctx context.Context, p wind.Point, r wind.DateRange) ([]wind.WindSample, error) {
	// end_date is inclusive on the API side
	last := r.End.Add(-time.Nanosecond).UTC()
	params := url.Values{
		"latitude":        {strconv.FormatFloat(p.Lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(p.Lng, 'f', 4, 64)},
		"start_date":      {r.Start.UTC().Format(dateLayout)},
		"end_date":        {last.Format(dateLayout)},
		"hourly":          {speedVar + "," + directionVar},
		"wind_speed_unit": {"ms"},
		"timezone":        {"GMT"},
	}

	resp, err := fetcher.GetJSON[forecastResponse](ctx, s.Fetcher, s.BaseURL, params)
	if err != nil {
		return nil, eris.Wrap(err, "windsource: forecast request")
	}
	if resp.Error {
		return nil, eris.Errorf("windsource: forecast API error: %s", resp.Reason)
	}

	samples, skipped, err := resp.samples(r)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("windsource: forecast samples loaded",
		zap.Float64("lat", p.Lat),
		zap.Float64("lng", p.Lng),
		zap.Int("samples", len(samples)),
		zap.Int("skipped_nulls", skipped),
	)
	return samples, nil
}

func (resp *forecastResponse) samples(r wind.DateRange) ([]wind.WindSample, int, error) {
	h := resp.Hourly
	if len(h.Speed) != len(h.Time) || len(h.Direction) != len(h.Time) {
		return nil, 0, eris.Errorf("windsource: forecast arrays disagree (time=%d speed=%d direction=%d)",
			len(h.Time), len(h.Speed), len(h.Direction))
	}

	samples := make([]wind.WindSample, 0, len(h.Time))
	skipped := 0
	for i, raw := range h.Time {
		t, err := time.Parse(hourLayout, raw)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "windsource: parse forecast time %q", raw)
		}
		if !r.Contains(t) {
			continue
		}
		if h.Speed[i] == nil || h.Direction[i] == nil {
			skipped++
			continue
		}
		u, v := Components(*h.Speed[i], *h.Direction[i])
		samples = append(samples, wind.WindSample{Time: t, U: u, V: v})
	}
	return samples, skipped, nil
}

// Components converts a speed and a meteorological direction (degrees the
// wind blows from, clockwise from north) to eastward and northward components.
func Components(speed, directionDeg float64) (u, v float64) {
	theta := directionDeg * math.Pi / 180
	return -speed * math.Sin(theta), -speed * math.Cos(theta)
}
