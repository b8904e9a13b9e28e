package wind

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WindSource returns wind samples at hub height for a point and date range.
type WindSource interface {
	Samples(ctx context.Context, p Point, r DateRange) ([]WindSample, error)
}

// BuildingFilter selects which structures count toward the inventory.
type BuildingFilter struct {
	RadiusMeters    float64 `json:"radius_meters" yaml:"radius_meters" mapstructure:"radius_meters"`
	MinConfidence   float64 `json:"min_confidence" yaml:"min_confidence" mapstructure:"min_confidence"`
	MinHeightMeters float64 `json:"min_height_m" yaml:"min_height_m" mapstructure:"min_height_m"`
}

// DefaultBuildingFilter returns a 1 km radius, 0.75 confidence, 3 m height filter.
func DefaultBuildingFilter() BuildingFilter {
	return BuildingFilter{RadiusMeters: 1000, MinConfidence: 0.75, MinHeightMeters: 3}
}

// Merge returns f with unset (zero) fields taken from base.
func (f BuildingFilter) Merge(base BuildingFilter) BuildingFilter {
	if f.RadiusMeters == 0 {
		f.RadiusMeters = base.RadiusMeters
	}
	if f.MinConfidence == 0 {
		f.MinConfidence = base.MinConfidence
	}
	if f.MinHeightMeters == 0 {
		f.MinHeightMeters = base.MinHeightMeters
	}
	return f
}

// BuildingSource counts qualifying structures around a point.
type BuildingSource interface {
	Summary(ctx context.Context, p Point, f BuildingFilter) (*BuildingSummary, error)
}

// Query describes one evaluation request.
type Query struct {
	Point    Point          `json:"point"`
	Range    DateRange      `json:"range"`
	Turbine  TurbineConfig  `json:"turbine"`
	Scenario ScenarioParams `json:"scenario"`
	Filter   BuildingFilter `json:"filter"`
}

// Validate rejects bad scenarios, turbines, points, and ranges before any
// data is fetched.
func (q Query) Validate() error {
	if err := q.Scenario.Validate(); err != nil {
		return err
	}
	if err := q.Turbine.Validate(); err != nil {
		return err
	}
	if err := q.Point.Validate(); err != nil {
		return err
	}
	return q.Range.Validate()
}

// Options tune day bucketing and quality labelling.
type Options struct {
	// Location defines calendar-day boundaries. Default: UTC.
	Location *time.Location
	Quality  QualityThresholds
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Quality == (QualityThresholds{}) {
		o.Quality = DefaultQuality()
	}
	return o
}

// EvaluateSamples runs the full estimate on already-fetched inputs. It holds
// no state, so identical inputs always give identical output.
func EvaluateSamples(samples []WindSample, buildings BuildingSummary, q Query, opts Options) (*Evaluation, error) {
	opts = opts.withDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoWindData
	}

	daily, err := DailyRecords(samples, q.Turbine, opts.Location)
	if err != nil {
		return nil, err
	}
	annual, err := ComputeAnnualSummary(daily, opts.Quality)
	if err != nil {
		// Every sample was unusable.
		return nil, eris.Wrap(ErrNoWindData, "wind: no usable samples")
	}
	coverage, err := ComputeBuildingCoverage(buildings, q.Scenario, *annual, opts.Quality)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Point:     q.Point,
		Range:     q.Range,
		Turbine:   q.Turbine,
		Scenario:  q.Scenario,
		Daily:     daily,
		Annual:    *annual,
		Buildings: buildings,
		Coverage:  *coverage,
	}, nil
}

// Recompute returns a copy of eval with coverage recalculated for a new
// scenario. Wind and building data are reused as-is.
func Recompute(eval *Evaluation, s ScenarioParams, q QualityThresholds) (*Evaluation, error) {
	if q == (QualityThresholds{}) {
		q = DefaultQuality()
	}
	coverage, err := ComputeBuildingCoverage(eval.Buildings, s, eval.Annual, q)
	if err != nil {
		return nil, err
	}
	out := *eval
	out.Daily = append([]DailyWindRecord(nil), eval.Daily...)
	out.Scenario = s
	out.Coverage = *coverage
	return &out, nil
}

// Estimator fetches inputs from its sources and evaluates them.
type Estimator struct {
	wind      WindSource
	buildings BuildingSource
	opts      Options
}

// NewEstimator creates an Estimator. Both sources are required.
func NewEstimator(ws WindSource, bs BuildingSource, opts Options) *Estimator {
	return &Estimator{wind: ws, buildings: bs, opts: opts.withDefaults()}
}

// Evaluate validates the query, fetches wind samples and the building
// inventory concurrently, then runs EvaluateSamples. A source with no samples
// yields ErrNoWindData.
func (e *Estimator) Evaluate(ctx context.Context, q Query) (*Evaluation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "wind.estimator"),
		zap.Float64("lat", q.Point.Lat),
		zap.Float64("lng", q.Point.Lng),
	)

	var samples []WindSample
	var buildings *BuildingSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.wind.Samples(gctx, q.Point, q.Range)
		if err != nil {
			return eris.Wrap(err, "wind: fetch samples")
		}
		samples = s
		return nil
	})
	g.Go(func() error {
		b, err := e.buildings.Summary(gctx, q.Point, q.Filter)
		if err != nil {
			return eris.Wrap(err, "wind: fetch building inventory")
		}
		buildings = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		log.Info("no wind samples for query",
			zap.Time("start", q.Range.Start),
			zap.Time("end", q.Range.End),
		)
		return nil, ErrNoWindData
	}

	if buildings == nil {
		buildings = &BuildingSummary{RadiusMeters: q.Filter.RadiusMeters}
	}

	eval, err := EvaluateSamples(samples, *buildings, q, e.opts)
	if err != nil {
		return nil, err
	}

	log.Info("evaluation computed",
		zap.Int("samples", len(samples)),
		zap.Int("days", eval.Annual.Days),
		zap.Float64("mean_wpd", eval.Annual.MeanPowerDensity),
		zap.Float64("mean_kwh_per_turbine", eval.Annual.MeanGenerationKWh),
		zap.Int("buildings", eval.Buildings.Count),
		zap.Int("homes_supported", eval.Coverage.HomesSupported),
		zap.Float64("coverage_ratio", eval.Coverage.CoverageRatio),
	)

	return eval, nil
}
