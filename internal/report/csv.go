package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/wind"
)

var dailyHeader = []string{"date", "samples", "mean_speed", "mean_power_density", "mean_generation_kw", "energy_kwh"}

func writeCSV(out io.Writer, eval *wind.Evaluation) error {
	w := csv.NewWriter(out)
	if err := w.Write(dailyHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range eval.Daily {
		if err := w.Write(dailyFields(r)); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

func dailyFields(r wind.DailyWindRecord) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		strconv.Itoa(r.Samples),
		formatFloat(r.MeanSpeed),
		formatFloat(r.MeanPowerDensity),
		formatFloat(r.MeanGenerationKW),
		formatFloat(r.EnergyKWh),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
