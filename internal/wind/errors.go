package wind

import (
	"math"

	"github.com/rotisserie/eris"
)

// Sentinel errors. Compare with errors.Is; callers wrap them with eris.
var (
	// ErrNoWindData is returned when a source has no samples for the point and range.
	ErrNoWindData = eris.New("wind: no wind data available")

	// ErrNoData is returned when summarising zero daily records.
	ErrNoData = eris.New("wind: no daily records to summarise")

	// ErrEmptyDay is returned when computing a daily record without samples.
	ErrEmptyDay = eris.New("wind: no samples for day")

	// ErrInvalidScenario rejects scenarios with fewer than one turbine or a non-positive load.
	ErrInvalidScenario = eris.New("wind: invalid scenario")

	// ErrInvalidTurbine rejects physically meaningless turbine constants.
	ErrInvalidTurbine = eris.New("wind: invalid turbine config")

	// ErrInvalidQuery rejects out-of-range points and empty date ranges.
	ErrInvalidQuery = eris.New("wind: invalid query")
)

// Validate checks the scenario before any coverage arithmetic runs.
func (s ScenarioParams) Validate() error {
	if s.NumTurbines < 1 {
		return eris.Wrapf(ErrInvalidScenario, "num_turbines must be >= 1, got %d", s.NumTurbines)
	}
	if !(s.DailyLoadPerHouseholdKWh > 0) {
		return eris.Wrapf(ErrInvalidScenario, "daily_load_kwh must be > 0, got %g", s.DailyLoadPerHouseholdKWh)
	}
	return nil
}

// Validate checks the turbine constants.
func (c TurbineConfig) Validate() error {
	switch {
	case !(c.RotorDiameterMeters > 0):
		return eris.Wrapf(ErrInvalidTurbine, "rotor diameter must be > 0, got %g", c.RotorDiameterMeters)
	case !(c.SystemEfficiency > 0) || c.SystemEfficiency > 1:
		return eris.Wrapf(ErrInvalidTurbine, "efficiency must be in (0, 1], got %g", c.SystemEfficiency)
	case !(c.AirDensity > 0):
		return eris.Wrapf(ErrInvalidTurbine, "air density must be > 0, got %g", c.AirDensity)
	case c.CutInSpeed < 0:
		return eris.Wrapf(ErrInvalidTurbine, "cut-in speed must be >= 0, got %g", c.CutInSpeed)
	case c.CutOutSpeed <= c.CutInSpeed:
		return eris.Wrapf(ErrInvalidTurbine, "cut-out speed %g must exceed cut-in speed %g", c.CutOutSpeed, c.CutInSpeed)
	case !(c.MaxGenerationKW > 0):
		return eris.Wrapf(ErrInvalidTurbine, "max generation must be > 0, got %g", c.MaxGenerationKW)
	}
	return nil
}

// Validate checks that the point lies on the globe.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return eris.Wrapf(ErrInvalidQuery, "latitude %g out of range", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return eris.Wrapf(ErrInvalidQuery, "longitude %g out of range", p.Lng)
	}
	return nil
}

// Validate checks that the range is non-empty.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return eris.Wrap(ErrInvalidQuery, "date range start and end are required")
	}
	if !r.End.After(r.Start) {
		return eris.Wrapf(ErrInvalidQuery, "date range end %s must be after start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}
