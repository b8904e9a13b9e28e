package wind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAnnualSummary(t *testing.T) {
	recs := []DailyWindRecord{
		{MeanPowerDensity: 100, EnergyKWh: 1000},
		{MeanPowerDensity: 300, EnergyKWh: 3000},
	}
	sum, err := ComputeAnnualSummary(recs, DefaultQuality())
	require.NoError(t, err)
	assert.InDelta(t, 200.0, sum.MeanPowerDensity, 1e-9)
	assert.InDelta(t, 2000.0, sum.MeanGenerationKWh, 1e-9)
	assert.Equal(t, 2, sum.Days)
	assert.Equal(t, QualityGood, sum.Quality)
}

func TestComputeAnnualSummary_Empty(t *testing.T) {
	sum, err := ComputeAnnualSummary(nil, DefaultQuality())
	assert.Nil(t, sum)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ComputeAnnualSummary([]DailyWindRecord{}, DefaultQuality())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestQualityLabel(t *testing.T) {
	q := DefaultQuality()
	tests := []struct {
		wpd  float64
		want Quality
	}{
		{0, QualityPoor},
		{199.99, QualityPoor},
		{200, QualityGood},
		{399.99, QualityGood},
		{400, QualityExcellent},
		{1200, QualityExcellent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, q.Label(tt.wpd), "wpd %g", tt.wpd)
	}
}

func TestQualityLabel_CustomThresholds(t *testing.T) {
	q := QualityThresholds{Good: 150, Excellent: 250}
	assert.Equal(t, QualityGood, q.Label(160))
	assert.Equal(t, QualityExcellent, q.Label(250))
}

func TestComputeBuildingCoverage_NoBuildings(t *testing.T) {
	// 1500 kWh / 30 kWh = 50 homes
	res, err := ComputeBuildingCoverage(
		BuildingSummary{Count: 0},
		ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 30},
		AnnualSummary{MeanGenerationKWh: 1500, MeanPowerDensity: 250},
		DefaultQuality(),
	)
	require.NoError(t, err)
	assert.Equal(t, 50, res.HomesSupported)
	assert.Equal(t, 0.0, res.CoverageRatio)
	assert.Equal(t, 0.0, res.CappedRatio)
	assert.Equal(t, CoverageNone, res.Status)
	assert.Equal(t, QualityGood, res.QualityLabel)
}

func TestComputeBuildingCoverage_OverFullCoverage(t *testing.T) {
	// 4500 kWh / 30 kWh = 150 homes for 100 buildings
	res, err := ComputeBuildingCoverage(
		BuildingSummary{Count: 100},
		ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 30},
		AnnualSummary{MeanGenerationKWh: 4500, MeanPowerDensity: 450},
		DefaultQuality(),
	)
	require.NoError(t, err)
	assert.Equal(t, 150, res.HomesSupported)
	assert.InDelta(t, 1.5, res.CoverageRatio, 1e-12)
	assert.Equal(t, 1.0, res.CappedRatio)
	assert.Equal(t, CoverageFull, res.Status)
	assert.Contains(t, res.Message, ">100%")
	assert.Equal(t, QualityExcellent, res.QualityLabel)
}

func TestComputeBuildingCoverage_HugeQuotientSaturates(t *testing.T) {
	for _, s := range []ScenarioParams{
		{NumTurbines: 1, DailyLoadPerHouseholdKWh: 1e-15},
		{NumTurbines: math.MaxInt64 / 2, DailyLoadPerHouseholdKWh: 30},
	} {
		res, err := ComputeBuildingCoverage(
			BuildingSummary{Count: 100},
			s,
			AnnualSummary{MeanGenerationKWh: 72000, MeanPowerDensity: 450},
			DefaultQuality(),
		)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, res.HomesSupported, "scenario %+v", s)
		assert.Greater(t, res.CoverageRatio, 1.0)
		assert.Equal(t, 1.0, res.CappedRatio)
		assert.Equal(t, CoverageFull, res.Status)
		assert.Contains(t, res.Message, ">100%")
	}
}

func TestComputeBuildingCoverage_Partial(t *testing.T) {
	// 2 turbines * 8312.6 kWh / 30 kWh = 554.17 -> 554 homes
	res, err := ComputeBuildingCoverage(
		BuildingSummary{Count: 1000},
		ScenarioParams{NumTurbines: 2, DailyLoadPerHouseholdKWh: 30},
		AnnualSummary{MeanGenerationKWh: 8312.6, MeanPowerDensity: 76.56},
		DefaultQuality(),
	)
	require.NoError(t, err)
	assert.Equal(t, 554, res.HomesSupported)
	assert.InDelta(t, 0.554, res.CoverageRatio, 1e-12)
	assert.InDelta(t, 0.554, res.CappedRatio, 1e-12)
	assert.Equal(t, CoveragePartial, res.Status)
	assert.Equal(t, QualityPoor, res.QualityLabel)
}

func TestComputeBuildingCoverage_ExactlyFull(t *testing.T) {
	res, err := ComputeBuildingCoverage(
		BuildingSummary{Count: 10},
		ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 10},
		AnnualSummary{MeanGenerationKWh: 100},
		DefaultQuality(),
	)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.CoverageRatio)
	assert.Equal(t, CoverageFull, res.Status)
}

func TestComputeBuildingCoverage_ZeroGeneration(t *testing.T) {
	res, err := ComputeBuildingCoverage(
		BuildingSummary{Count: 10},
		DefaultScenario(),
		AnnualSummary{},
		DefaultQuality(),
	)
	require.NoError(t, err)
	assert.Equal(t, 0, res.HomesSupported)
	assert.Equal(t, CoverageNone, res.Status)
}

func TestComputeBuildingCoverage_InvalidScenario(t *testing.T) {
	bad := []ScenarioParams{
		{NumTurbines: 0, DailyLoadPerHouseholdKWh: 30},
		{NumTurbines: -3, DailyLoadPerHouseholdKWh: 30},
		{NumTurbines: 1, DailyLoadPerHouseholdKWh: 0},
		{NumTurbines: 1, DailyLoadPerHouseholdKWh: -5},
	}
	for _, s := range bad {
		res, err := ComputeBuildingCoverage(BuildingSummary{Count: 1}, s, AnnualSummary{MeanGenerationKWh: 100}, DefaultQuality())
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrInvalidScenario, "%+v", s)
	}
}

func TestTurbineConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultTurbine().Validate())

	mutate := []func(*TurbineConfig){
		func(c *TurbineConfig) { c.RotorDiameterMeters = 0 },
		func(c *TurbineConfig) { c.SystemEfficiency = 0 },
		func(c *TurbineConfig) { c.SystemEfficiency = 1.2 },
		func(c *TurbineConfig) { c.AirDensity = -1 },
		func(c *TurbineConfig) { c.CutInSpeed = -1 },
		func(c *TurbineConfig) { c.CutOutSpeed = c.CutInSpeed },
		func(c *TurbineConfig) { c.MaxGenerationKW = 0 },
	}
	for i, m := range mutate {
		cfg := DefaultTurbine()
		m(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidTurbine, "case %d", i)
	}
}
