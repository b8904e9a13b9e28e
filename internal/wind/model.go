// Package wind estimates turbine output from 100 m wind vectors and converts
// it into the share of nearby buildings a wind farm could power.
package wind

import (
	"time"
)

// Point is a WGS84 query location.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// WindSample is one u/v wind observation or forecast step at hub height.
type WindSample struct {
	Time time.Time `json:"time"`
	U    float64   `json:"u"` // eastward component, m/s
	V    float64   `json:"v"` // northward component, m/s
}

// DailyWindRecord aggregates all samples of one calendar day.
type DailyWindRecord struct {
	Date             time.Time `json:"date"`
	MeanSpeed        float64   `json:"mean_speed"`         // m/s
	MeanPowerDensity float64   `json:"mean_power_density"` // W/m²
	MeanGenerationKW float64   `json:"mean_generation_kw"` // per turbine
	EnergyKWh        float64   `json:"energy_kwh"`         // per turbine per day
	Samples          int       `json:"samples"`
}

// BuildingSummary is the count of qualifying structures around a point.
type BuildingSummary struct {
	Count           int     `json:"count"`
	RadiusMeters    float64 `json:"radius_meters"`
	MinConfidence   float64 `json:"min_confidence"`
	MinHeightMeters float64 `json:"min_height_meters"`
}

// TurbineConfig holds the physical constants of a single turbine.
type TurbineConfig struct {
	RotorDiameterMeters float64 `json:"rotor_diameter_m" yaml:"rotor_diameter_m" mapstructure:"rotor_diameter_m"`
	SystemEfficiency    float64 `json:"system_efficiency" yaml:"system_efficiency" mapstructure:"system_efficiency"`
	AirDensity          float64 `json:"air_density" yaml:"air_density" mapstructure:"air_density"`
	CutInSpeed          float64 `json:"cut_in_speed" yaml:"cut_in_speed" mapstructure:"cut_in_speed"`
	CutOutSpeed         float64 `json:"cut_out_speed" yaml:"cut_out_speed" mapstructure:"cut_out_speed"`
	MaxGenerationKW     float64 `json:"max_generation_kw" yaml:"max_generation_kw" mapstructure:"max_generation_kw"`
	HubHeightMeters     float64 `json:"hub_height_m" yaml:"hub_height_m" mapstructure:"hub_height_m"`
}

// DefaultTurbine returns a 120 m rotor utility-scale turbine at 100 m hub height.
func DefaultTurbine() TurbineConfig {
	return TurbineConfig{
		RotorDiameterMeters: 120,
		SystemEfficiency:    0.40,
		AirDensity:          1.225,
		CutInSpeed:          3,
		CutOutSpeed:         25,
		MaxGenerationKW:     3000,
		HubHeightMeters:     100,
	}
}

// Merge returns c with every unset (zero) field taken from base.
func (c TurbineConfig) Merge(base TurbineConfig) TurbineConfig {
	fill := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&c.RotorDiameterMeters, base.RotorDiameterMeters)
	fill(&c.SystemEfficiency, base.SystemEfficiency)
	fill(&c.AirDensity, base.AirDensity)
	fill(&c.CutInSpeed, base.CutInSpeed)
	fill(&c.CutOutSpeed, base.CutOutSpeed)
	fill(&c.MaxGenerationKW, base.MaxGenerationKW)
	fill(&c.HubHeightMeters, base.HubHeightMeters)
	return c
}

// ScenarioParams are the user-adjustable inputs of the coverage model.
type ScenarioParams struct {
	NumTurbines              int     `json:"num_turbines" yaml:"num_turbines" mapstructure:"num_turbines"`
	DailyLoadPerHouseholdKWh float64 `json:"daily_load_kwh" yaml:"daily_load_kwh" mapstructure:"daily_load_kwh"`
}

// DefaultScenario returns one turbine against a 30 kWh/day household.
func DefaultScenario() ScenarioParams {
	return ScenarioParams{NumTurbines: 1, DailyLoadPerHouseholdKWh: 30}
}

// Merge returns s with unset (zero) fields taken from base.
func (s ScenarioParams) Merge(base ScenarioParams) ScenarioParams {
	if s.NumTurbines == 0 {
		s.NumTurbines = base.NumTurbines
	}
	if s.DailyLoadPerHouseholdKWh == 0 {
		s.DailyLoadPerHouseholdKWh = base.DailyLoadPerHouseholdKWh
	}
	return s
}

// QualityThresholds bucket mean wind power density into quality labels.
type QualityThresholds struct {
	Good      float64 `json:"good" yaml:"good" mapstructure:"good"`
	Excellent float64 `json:"excellent" yaml:"excellent" mapstructure:"excellent"`
}

// DefaultQuality returns the 200/400 W/m² thresholds.
func DefaultQuality() QualityThresholds {
	return QualityThresholds{Good: 200, Excellent: 400}
}

// Quality is a wind resource quality bucket.
type Quality string

// Quality buckets.
const (
	QualityPoor      Quality = "Poor"
	QualityGood      Quality = "Good"
	QualityExcellent Quality = "Excellent"
)

// AnnualSummary averages daily records over the evaluated period.
type AnnualSummary struct {
	MeanPowerDensity  float64 `json:"mean_power_density"`  // W/m²
	MeanGenerationKWh float64 `json:"mean_generation_kwh"` // per turbine per day
	Days              int     `json:"days"`
	Quality           Quality `json:"quality"`
}

// CoverageStatus classifies a coverage ratio.
type CoverageStatus string

// Coverage statuses.
const (
	CoverageNone    CoverageStatus = "none"
	CoveragePartial CoverageStatus = "partial"
	CoverageFull    CoverageStatus = "full"
)

// CoverageResult describes how many buildings a scenario can power.
type CoverageResult struct {
	HomesSupported int            `json:"homes_supported"`
	CoverageRatio  float64        `json:"coverage_ratio"` // unclamped
	CappedRatio    float64        `json:"capped_ratio"`   // min(ratio, 1)
	QualityLabel   Quality        `json:"quality_label"`
	Status         CoverageStatus `json:"status"`
	Message        string         `json:"message"`
}

// Evaluation is the full output for one point, period, and scenario.
type Evaluation struct {
	ID        string            `json:"id,omitempty"`
	Point     Point             `json:"point"`
	Range     DateRange         `json:"range"`
	Turbine   TurbineConfig     `json:"turbine"`
	Scenario  ScenarioParams    `json:"scenario"`
	Daily     []DailyWindRecord `json:"daily"`
	Annual    AnnualSummary     `json:"annual"`
	Buildings BuildingSummary   `json:"buildings"`
	Coverage  CoverageResult    `json:"coverage"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}
