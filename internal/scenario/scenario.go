// Package scenario loads scenario sweep files and evaluates every scenario
// against one set of wind samples.
package scenario

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/windcover/internal/wind"
)

// Sweep is the top-level sweep file.
type Sweep struct {
	Defaults  Defaults   `yaml:"defaults"`
	Scenarios []Scenario `yaml:"scenarios"`
	Grid      *Grid      `yaml:"grid,omitempty"`
}

// Defaults apply to scenarios that leave a field unset.
type Defaults struct {
	NumTurbines  int                 `yaml:"num_turbines"`
	DailyLoadKWh float64             `yaml:"daily_load_kwh"`
	Turbine      *wind.TurbineConfig `yaml:"turbine,omitempty"`
}

// Scenario is one named set of inputs. A nil Turbine uses the defaults.
type Scenario struct {
	Name         string              `yaml:"name"`
	NumTurbines  int                 `yaml:"num_turbines"`
	DailyLoadKWh float64             `yaml:"daily_load_kwh"`
	Turbine      *wind.TurbineConfig `yaml:"turbine,omitempty"`
}

// Params returns the coverage inputs of the scenario.
func (s Scenario) Params() wind.ScenarioParams {
	return wind.ScenarioParams{NumTurbines: s.NumTurbines, DailyLoadPerHouseholdKWh: s.DailyLoadKWh}
}

// Grid expands to the cartesian product of its lists.
type Grid struct {
	NumTurbines  []int     `yaml:"num_turbines"`
	DailyLoadKWh []float64 `yaml:"daily_load_kwh"`
}

func (g *Grid) expand(d Defaults) []Scenario {
	turbines := g.NumTurbines
	if len(turbines) == 0 {
		turbines = []int{d.NumTurbines}
	}
	loads := g.DailyLoadKWh
	if len(loads) == 0 {
		loads = []float64{d.DailyLoadKWh}
	}
	out := make([]Scenario, 0, len(turbines)*len(loads))
	for _, n := range turbines {
		for _, l := range loads {
			out = append(out, Scenario{
				Name:         fmt.Sprintf("%dx@%gkWh", n, l),
				NumTurbines:  n,
				DailyLoadKWh: l,
			})
		}
	}
	return out
}

// Load reads a sweep file. Fields the file leaves out come from base.
func Load(path string, base wind.ScenarioParams) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}
	return Parse(data, base)
}

// Parse decodes a sweep document, fills defaults from base and validates
// every scenario.
func Parse(data []byte, base wind.ScenarioParams) (*Sweep, error) {
	var s Sweep
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "scenario: parse sweep")
	}

	if s.Defaults.NumTurbines == 0 {
		s.Defaults.NumTurbines = base.NumTurbines
	}
	if s.Defaults.DailyLoadKWh == 0 {
		s.Defaults.DailyLoadKWh = base.DailyLoadPerHouseholdKWh
	}
	if s.Grid != nil {
		s.Scenarios = append(s.Scenarios, s.Grid.expand(s.Defaults)...)
	}
	if len(s.Scenarios) == 0 {
		return nil, eris.New("scenario: sweep defines no scenarios")
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		if seen[sc.Name] {
			return nil, eris.Errorf("scenario: duplicate name %q", sc.Name)
		}
		seen[sc.Name] = true

		if sc.NumTurbines == 0 {
			sc.NumTurbines = s.Defaults.NumTurbines
		}
		if sc.DailyLoadKWh == 0 {
			sc.DailyLoadKWh = s.Defaults.DailyLoadKWh
		}
		if sc.Turbine == nil {
			sc.Turbine = s.Defaults.Turbine
		}
		if err := sc.Params().Validate(); err != nil {
			return nil, eris.Wrapf(err, "scenario %q", sc.Name)
		}
		if sc.Turbine != nil {
			t := sc.Turbine.Merge(wind.DefaultTurbine())
			sc.Turbine = &t
			if err := sc.Turbine.Validate(); err != nil {
				return nil, eris.Wrapf(err, "scenario %q", sc.Name)
			}
		}
	}
	return &s, nil
}

