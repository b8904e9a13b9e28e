// Package sink exports evaluations to InfluxDB for dashboards.
package sink

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/config"
	"github.com/sells-group/windcover/internal/wind"
)

// Measurement names.
const (
	MeasurementDaily    = "wind_daily"
	MeasurementCoverage = "wind_coverage"
)

// pointWriter is satisfied by api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes daily records and the coverage result of an evaluation.
type InfluxSink struct {
	client influxdb2.Client
	writer pointWriter
	now    func() time.Time
}

// NewInfluxSink connects to InfluxDB v2 and verifies the server is healthy.
func NewInfluxSink(ctx context.Context, cfg config.InfluxConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "influx: health check")
	}
	zap.L().Info("influx: connected",
		zap.String("url", cfg.URL),
		zap.String("org", cfg.Org),
		zap.String("bucket", cfg.Bucket),
	)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		now:    time.Now,
	}, nil
}

// WriteEvaluation writes one wind_daily point per day and one wind_coverage point.
func (s *InfluxSink) WriteEvaluation(ctx context.Context, eval *wind.Evaluation) error {
	points := Points(eval, s.now())
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return eris.Wrapf(err, "influx: write %d points", len(points))
	}
	zap.L().Debug("influx: wrote evaluation",
		zap.String("evaluation_id", eval.ID),
		zap.Int("points", len(points)),
	)
	return nil
}

// Close flushes and releases the client.
func (s *InfluxSink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Points converts an evaluation to line-protocol points. The coverage point is
// stamped with the evaluation's creation time, or fallback when it has none.
func Points(eval *wind.Evaluation, fallback time.Time) []*write.Point {
	tags := map[string]string{
		"lat": strconv.FormatFloat(eval.Point.Lat, 'f', 4, 64),
		"lng": strconv.FormatFloat(eval.Point.Lng, 'f', 4, 64),
	}

	points := make([]*write.Point, 0, len(eval.Daily)+1)
	for _, d := range eval.Daily {
		points = append(points, write.NewPoint(
			MeasurementDaily,
			tags,
			map[string]any{
				"mean_speed":    d.MeanSpeed,
				"power_density": d.MeanPowerDensity,
				"generation_kw": d.MeanGenerationKW,
				"energy_kwh":    d.EnergyKWh,
				"samples":       d.Samples,
			},
			d.Date,
		))
	}

	ts := eval.CreatedAt
	if ts.IsZero() {
		ts = fallback
	}
	coverageTags := map[string]string{
		"lat":     tags["lat"],
		"lng":     tags["lng"],
		"quality": string(eval.Annual.Quality),
		"status":  string(eval.Coverage.Status),
	}
	points = append(points, write.NewPoint(
		MeasurementCoverage,
		coverageTags,
		map[string]any{
			"num_turbines":       eval.Scenario.NumTurbines,
			"daily_load_kwh":     eval.Scenario.DailyLoadPerHouseholdKWh,
			"buildings":          eval.Buildings.Count,
			"homes_supported":    eval.Coverage.HomesSupported,
			"coverage_ratio":     eval.Coverage.CoverageRatio,
			"capped_ratio":       eval.Coverage.CappedRatio,
			"mean_power_density": eval.Annual.MeanPowerDensity,
		},
		ts,
	))
	return points
}
