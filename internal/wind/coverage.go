package wind

import (
	"fmt"
	"math"
)

// ComputeBuildingCoverage converts per-turbine daily energy into equivalent
// households and compares them with the building count. An empty inventory
// yields a zero ratio rather than an error.
func ComputeBuildingCoverage(b BuildingSummary, s ScenarioParams, annual AnnualSummary, q QualityThresholds) (*CoverageResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	totalDailyKWh := annual.MeanGenerationKWh * float64(s.NumTurbines)
	homes := households(totalDailyKWh / s.DailyLoadPerHouseholdKWh)

	ratio := 0.0
	if b.Count > 0 {
		ratio = float64(homes) / float64(b.Count)
	}

	res := &CoverageResult{
		HomesSupported: homes,
		CoverageRatio:  ratio,
		CappedRatio:    math.Min(ratio, 1),
		QualityLabel:   q.Label(annual.MeanPowerDensity),
	}
	res.Status, res.Message = coverageStatus(b.Count, homes, ratio)
	return res, nil
}

// households floors q to a whole count, saturating at math.MaxInt so huge
// quotients never wrap negative.
func households(q float64) int {
	switch {
	case math.IsNaN(q) || q <= 0:
		return 0
	case q >= math.MaxInt:
		return math.MaxInt
	}
	return int(math.Floor(q))
}

func coverageStatus(buildings, homes int, ratio float64) (CoverageStatus, string) {
	switch {
	case buildings == 0:
		return CoverageNone, "No qualifying buildings in range"
	case homes == 0:
		return CoverageNone, "Generation cannot cover a single household"
	case ratio > 1:
		return CoverageFull, fmt.Sprintf("Covers >100%% of buildings (%.0f%%)", ratio*100)
	case ratio == 1:
		return CoverageFull, "Covers 100% of buildings"
	default:
		return CoveragePartial, fmt.Sprintf("Covers %.1f%% of buildings (%d of %d)", ratio*100, homes, buildings)
	}
}
