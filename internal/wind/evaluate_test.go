package wind

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWind struct {
	samples []WindSample
	err     error
	calls   atomic.Int32
}

func (f *fakeWind) Samples(_ context.Context, _ Point, r DateRange) ([]WindSample, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []WindSample
	for _, s := range f.samples {
		if r.Contains(s.Time) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBuildings struct {
	count int
	err   error
	calls atomic.Int32
}

func (f *fakeBuildings) Summary(_ context.Context, _ Point, flt BuildingFilter) (*BuildingSummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &BuildingSummary{
		Count:           f.count,
		RadiusMeters:    flt.RadiusMeters,
		MinConfidence:   flt.MinConfidence,
		MinHeightMeters: flt.MinHeightMeters,
	}, nil
}

func testQuery() Query {
	return Query{
		Point:    Point{Lat: 55.6, Lng: 12.5},
		Range:    DateRange{Start: ts("2024-03-01T00:00:00Z"), End: ts("2024-03-03T00:00:00Z")},
		Turbine:  DefaultTurbine(),
		Scenario: ScenarioParams{NumTurbines: 3, DailyLoadPerHouseholdKWh: 30},
		Filter:   DefaultBuildingFilter(),
	}
}

func hourly(start time.Time, hours int, u, v float64) []WindSample {
	out := make([]WindSample, hours)
	for i := range out {
		out[i] = WindSample{Time: start.Add(time.Duration(i) * time.Hour), U: u, V: v}
	}
	return out
}

func TestEstimator_Evaluate(t *testing.T) {
	ws := &fakeWind{samples: hourly(ts("2024-03-01T00:00:00Z"), 48, 3, 4)}
	bs := &fakeBuildings{count: 500}
	est := NewEstimator(ws, bs, Options{})

	eval, err := est.Evaluate(context.Background(), testQuery())
	require.NoError(t, err)

	require.Len(t, eval.Daily, 2)
	assert.Equal(t, 24, eval.Daily[0].Samples)
	assert.Equal(t, 2, eval.Annual.Days)
	assert.InDelta(t, 8312.6, eval.Annual.MeanGenerationKWh, 0.5)
	assert.Equal(t, QualityPoor, eval.Annual.Quality)

	// 3 * 8312.65 / 30 = 831.26 -> 831 homes over 500 buildings
	assert.Equal(t, 831, eval.Coverage.HomesSupported)
	assert.InDelta(t, 1.662, eval.Coverage.CoverageRatio, 1e-9)
	assert.Equal(t, 1.0, eval.Coverage.CappedRatio)
	assert.Equal(t, CoverageFull, eval.Coverage.Status)
	assert.Equal(t, 1000.0, eval.Buildings.RadiusMeters)
}

func TestEstimator_Evaluate_Idempotent(t *testing.T) {
	ws := &fakeWind{samples: hourly(ts("2024-03-01T00:00:00Z"), 48, 6, -2)}
	bs := &fakeBuildings{count: 120}
	est := NewEstimator(ws, bs, Options{})

	first, err := est.Evaluate(context.Background(), testQuery())
	require.NoError(t, err)
	second, err := est.Evaluate(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEstimator_Evaluate_NoWindData(t *testing.T) {
	ws := &fakeWind{}
	est := NewEstimator(ws, &fakeBuildings{count: 10}, Options{})

	_, err := est.Evaluate(context.Background(), testQuery())
	assert.ErrorIs(t, err, ErrNoWindData)
	assert.Equal(t, int32(1), ws.calls.Load())
}

func TestEstimator_Evaluate_InvalidScenarioSkipsFetch(t *testing.T) {
	ws := &fakeWind{samples: hourly(ts("2024-03-01T00:00:00Z"), 24, 3, 4)}
	bs := &fakeBuildings{count: 10}
	est := NewEstimator(ws, bs, Options{})

	q := testQuery()
	q.Scenario.NumTurbines = 0
	_, err := est.Evaluate(context.Background(), q)
	assert.ErrorIs(t, err, ErrInvalidScenario)
	assert.Zero(t, ws.calls.Load())
	assert.Zero(t, bs.calls.Load())
}

func TestEstimator_Evaluate_InvalidQuery(t *testing.T) {
	est := NewEstimator(&fakeWind{}, &fakeBuildings{}, Options{})

	q := testQuery()
	q.Point.Lat = 91
	_, err := est.Evaluate(context.Background(), q)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	q = testQuery()
	q.Range.End = q.Range.Start
	_, err = est.Evaluate(context.Background(), q)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestEstimator_Evaluate_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	est := NewEstimator(&fakeWind{err: boom}, &fakeBuildings{count: 1}, Options{})

	_, err := est.Evaluate(context.Background(), testQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch samples")

	est = NewEstimator(&fakeWind{samples: hourly(ts("2024-03-01T00:00:00Z"), 24, 3, 4)}, &fakeBuildings{err: boom}, Options{})
	_, err = est.Evaluate(context.Background(), testQuery())
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateSamples_AllSamplesUnusable(t *testing.T) {
	samples := []WindSample{{Time: ts("2024-03-01T00:00:00Z"), U: nan(), V: 1}}
	_, err := EvaluateSamples(samples, BuildingSummary{Count: 1}, testQuery(), Options{})
	assert.ErrorIs(t, err, ErrNoWindData)
}

func TestRecompute_ChangesOnlyCoverage(t *testing.T) {
	samples := hourly(ts("2024-03-01T00:00:00Z"), 48, 3, 4)
	eval, err := EvaluateSamples(samples, BuildingSummary{Count: 500}, testQuery(), Options{})
	require.NoError(t, err)

	next, err := Recompute(eval, ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 30}, DefaultQuality())
	require.NoError(t, err)

	assert.Equal(t, 277, next.Coverage.HomesSupported)
	assert.Equal(t, CoveragePartial, next.Coverage.Status)
	assert.Equal(t, eval.Annual, next.Annual)
	assert.Equal(t, eval.Daily, next.Daily)
	// original untouched
	assert.Equal(t, 3, eval.Scenario.NumTurbines)
	assert.Equal(t, 831, eval.Coverage.HomesSupported)

	_, err = Recompute(eval, ScenarioParams{NumTurbines: 1}, DefaultQuality())
	assert.ErrorIs(t, err, ErrInvalidScenario)
}
