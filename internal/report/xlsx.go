package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/windcover/internal/wind"
)

// WriteXLSX saves eval as a workbook with a Summary and a Daily sheet.
func WriteXLSX(path string, eval *wind.Evaluation) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addPair(summary, "id", eval.ID)
	addFloat(summary, "lat", eval.Point.Lat)
	addFloat(summary, "lng", eval.Point.Lng)
	addPair(summary, "start", eval.Range.Start.Format("2006-01-02"))
	addPair(summary, "end", eval.Range.End.Format("2006-01-02"))
	addInt(summary, "num_turbines", eval.Scenario.NumTurbines)
	addFloat(summary, "daily_load_kwh", eval.Scenario.DailyLoadPerHouseholdKWh)
	addFloat(summary, "mean_power_density", eval.Annual.MeanPowerDensity)
	addFloat(summary, "mean_generation_kwh", eval.Annual.MeanGenerationKWh)
	addPair(summary, "quality", string(eval.Annual.Quality))
	addInt(summary, "buildings", eval.Buildings.Count)
	addInt(summary, "homes_supported", eval.Coverage.HomesSupported)
	addFloat(summary, "coverage_ratio", eval.Coverage.CoverageRatio)
	addFloat(summary, "capped_ratio", eval.Coverage.CappedRatio)
	addPair(summary, "status", string(eval.Coverage.Status))

	daily, err := f.AddSheet("Daily")
	if err != nil {
		return eris.Wrap(err, "report: add daily sheet")
	}
	header := daily.AddRow()
	for _, h := range dailyHeader {
		header.AddCell().SetString(h)
	}
	for _, r := range eval.Daily {
		row := daily.AddRow()
		row.AddCell().SetString(r.Date.Format("2006-01-02"))
		row.AddCell().SetInt(r.Samples)
		row.AddCell().SetFloat(r.MeanSpeed)
		row.AddCell().SetFloat(r.MeanPowerDensity)
		row.AddCell().SetFloat(r.MeanGenerationKW)
		row.AddCell().SetFloat(r.EnergyKWh)
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addPair(sheet *xlsx.Sheet, key, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetString(value)
}

func addFloat(sheet *xlsx.Sheet, key string, value float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetFloat(value)
}

func addInt(sheet *xlsx.Sheet, key string, value int) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetInt(value)
}
