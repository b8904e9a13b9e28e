package scenario

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/wind"
)

// Result is the evaluation of one scenario.
type Result struct {
	Name       string           `json:"name"`
	Evaluation *wind.Evaluation `json:"evaluation"`
}

// Run evaluates every scenario of s on the same samples and building count.
// Scenarios without a turbine override reuse base.Turbine.
func Run(samples []wind.WindSample, buildings wind.BuildingSummary, base wind.Query, opts wind.Options, s *Sweep) ([]Result, error) {
	out := make([]Result, 0, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		q := base
		q.Scenario = sc.Params()
		if sc.Turbine != nil {
			q.Turbine = *sc.Turbine
		}
		eval, err := wind.EvaluateSamples(samples, buildings, q, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "scenario %q", sc.Name)
		}
		out = append(out, Result{Name: sc.Name, Evaluation: eval})
	}
	return out, nil
}

// Rows converts results for report.WriteScenarios.
func Rows(results []Result) []report.ScenarioRow {
	rows := make([]report.ScenarioRow, len(results))
	for i, r := range results {
		rows[i] = report.ScenarioRow{
			Name:     r.Name,
			Scenario: r.Evaluation.Scenario,
			Coverage: r.Evaluation.Coverage,
		}
	}
	return rows
}
