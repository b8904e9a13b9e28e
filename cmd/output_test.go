package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/wind"
)

func testEvaluation() *wind.Evaluation {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &wind.Evaluation{
		ID:       "0f6c1c1e-1111-2222-3333-444455556666",
		Point:    wind.Point{Lat: 41.5, Lng: -70.6},
		Range:    wind.DateRange{Start: day, End: day.AddDate(0, 0, 1)},
		Turbine:  wind.DefaultTurbine(),
		Scenario: wind.ScenarioParams{NumTurbines: 10, DailyLoadPerHouseholdKWh: 30},
		Daily: []wind.DailyWindRecord{
			{Date: day, MeanSpeed: 5, MeanPowerDensity: 76.6, MeanGenerationKW: 346.4, EnergyKWh: 8312.6, Samples: 24},
		},
		Annual:    wind.AnnualSummary{MeanPowerDensity: 76.6, MeanGenerationKWh: 8312.6, Days: 1, Quality: wind.QualityPoor},
		Buildings: wind.BuildingSummary{Count: 5000, RadiusMeters: 1000},
		Coverage:  wind.CoverageResult{HomesSupported: 2770, CoverageRatio: 0.554, CappedRatio: 0.554, Status: wind.CoveragePartial},
	}
}

func TestWriteEvaluation_Stdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvaluation(&buf, testEvaluation(), report.FormatJSON, ""))

	var got wind.Evaluation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2770, got.Coverage.HomesSupported)
}

func TestWriteEvaluation_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.csv")
	var buf bytes.Buffer
	require.NoError(t, writeEvaluation(&buf, testEvaluation(), report.FormatCSV, path))
	assert.Zero(t, buf.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-01-01")
}

func TestWriteEvaluation_XLSXNeedsOutput(t *testing.T) {
	err := writeEvaluation(&bytes.Buffer{}, testEvaluation(), report.FormatXLSX, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")

	path := filepath.Join(t.TempDir(), "eval.xlsx")
	require.NoError(t, writeEvaluation(&bytes.Buffer{}, testEvaluation(), report.FormatXLSX, path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestScenarioFlags(t *testing.T) {
	base := wind.ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 30}
	assert.Equal(t, base, scenarioFlags(base, 0, 0))
	assert.Equal(t, wind.ScenarioParams{NumTurbines: 10, DailyLoadPerHouseholdKWh: 30}, scenarioFlags(base, 10, 0))
	assert.Equal(t, wind.ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 12.5}, scenarioFlags(base, 0, 12.5))
}

func TestExplain(t *testing.T) {
	err := explain(wind.ErrNoWindData)
	assert.True(t, errors.Is(err, wind.ErrNoWindData))
	assert.Contains(t, err.Error(), "no wind data available")

	other := errors.New("boom")
	assert.Equal(t, other, explain(other))
}

func TestParseGrid(t *testing.T) {
	w, h, err := parseGrid("40x20")
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	for _, bad := range []string{"", "40", "0x5", "axb"} {
		_, _, err := parseGrid(bad)
		assert.Error(t, err, bad)
	}
}
