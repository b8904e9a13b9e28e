package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/windcover/internal/wind"
)

const sparkWidth = 60

// printer groups thousands in counts and energy totals.
var printer = message.NewPrinter(language.English)

func writeTable(out io.Writer, eval *wind.Evaluation) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if eval.ID != "" {
		_, _ = fmt.Fprintf(w, "Evaluation:\t%s\n", eval.ID)
	}
	_, _ = fmt.Fprintf(w, "Location:\t%.4f, %.4f\n", eval.Point.Lat, eval.Point.Lng)
	_, _ = fmt.Fprintf(w, "Period:\t%s to %s (%d days)\n",
		eval.Range.Start.Format("2006-01-02"), eval.Range.End.Format("2006-01-02"), eval.Annual.Days)
	_, _ = fmt.Fprintf(w, "Turbine:\t%.0f m rotor, %.0f%% efficiency, %s kW cap\n",
		eval.Turbine.RotorDiameterMeters, eval.Turbine.SystemEfficiency*100,
		printer.Sprintf("%.0f", eval.Turbine.MaxGenerationKW))
	_, _ = fmt.Fprintf(w, "Scenario:\t%d turbine(s), %.1f kWh/day per household\n",
		eval.Scenario.NumTurbines, eval.Scenario.DailyLoadPerHouseholdKWh)
	_, _ = fmt.Fprintln(w, "\t")

	_, _ = fmt.Fprintf(w, "Mean power density:\t%.1f W/m² (%s)\n", eval.Annual.MeanPowerDensity, eval.Annual.Quality)
	_, _ = fmt.Fprintf(w, "Mean daily energy:\t%s kWh per turbine\n", printer.Sprintf("%.0f", eval.Annual.MeanGenerationKWh))
	_, _ = fmt.Fprintf(w, "Daily energy:\t%s\n", Sparkline(dailyEnergy(eval.Daily), sparkWidth))
	_, _ = fmt.Fprintf(w, "Buildings:\t%s within %s m\n",
		printer.Sprintf("%d", eval.Buildings.Count), printer.Sprintf("%.0f", eval.Buildings.RadiusMeters))
	_, _ = fmt.Fprintf(w, "Homes supported:\t%s\n", printer.Sprintf("%d", eval.Coverage.HomesSupported))
	_, _ = fmt.Fprintf(w, "Coverage:\t%.0f%% (%s)\n", eval.Coverage.CappedRatio*100, eval.Coverage.Status)
	if eval.Coverage.Message != "" {
		_, _ = fmt.Fprintf(w, "\t%s\n", eval.Coverage.Message)
	}
	return w.Flush()
}

// WriteDaily writes one row per day.
func WriteDaily(out io.Writer, records []wind.DailyWindRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tSAMPLES\tSPEED_MS\tWPD_WM2\tMEAN_KW\tENERGY_KWH")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.2f\t%.1f\t%.1f\t%s\n",
			r.Date.Format("2006-01-02"), r.Samples, r.MeanSpeed, r.MeanPowerDensity,
			r.MeanGenerationKW, printer.Sprintf("%.0f", r.EnergyKWh))
	}
	return w.Flush()
}

// WriteHistory writes a compact list of saved evaluations.
func WriteHistory(out io.Writer, evals []wind.Evaluation) error {
	if len(evals) == 0 {
		_, err := fmt.Fprintln(out, "No evaluations found.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLOCATION\tPERIOD\tQUALITY\tHOMES\tCOVERAGE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t-------\t-----\t--------\t-------")
	for _, e := range evals {
		_, _ = fmt.Fprintf(w, "%s\t%.3f,%.3f\t%s..%s\t%s\t%s\t%.0f%%\t%s\n",
			truncateID(e.ID),
			e.Point.Lat, e.Point.Lng,
			e.Range.Start.Format("2006-01-02"), e.Range.End.Format("2006-01-02"),
			e.Annual.Quality,
			printer.Sprintf("%d", e.Coverage.HomesSupported),
			e.Coverage.CappedRatio*100,
			e.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

// ScenarioRow is one line of a scenario comparison.
type ScenarioRow struct {
	Name     string              `json:"name"`
	Scenario wind.ScenarioParams `json:"scenario"`
	Coverage wind.CoverageResult `json:"coverage"`
}

// WriteScenarios compares coverage across scenarios evaluated on the same wind data.
func WriteScenarios(out io.Writer, rows []ScenarioRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCENARIO\tTURBINES\tLOAD_KWH\tHOMES\tRATIO\tSTATUS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%.2f\t%s\n",
			r.Name, r.Scenario.NumTurbines, r.Scenario.DailyLoadPerHouseholdKWh,
			printer.Sprintf("%d", r.Coverage.HomesSupported), r.Coverage.CoverageRatio, r.Coverage.Status)
	}
	return w.Flush()
}

func dailyEnergy(records []wind.DailyWindRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.EnergyKWh
	}
	return out
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
