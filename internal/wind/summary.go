package wind

// ComputeAnnualSummary averages power density and daily energy across records.
// Returns ErrNoData for an empty slice.
func ComputeAnnualSummary(records []DailyWindRecord, q QualityThresholds) (*AnnualSummary, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var sumWPD, sumKWh float64
	for _, r := range records {
		sumWPD += r.MeanPowerDensity
		sumKWh += r.EnergyKWh
	}
	n := float64(len(records))
	meanWPD := sumWPD / n

	return &AnnualSummary{
		MeanPowerDensity:  meanWPD,
		MeanGenerationKWh: sumKWh / n,
		Days:              len(records),
		Quality:           q.Label(meanWPD),
	}, nil
}

// Label buckets a mean power density: Poor below Good, Excellent at or above
// Excellent, Good in between.
func (q QualityThresholds) Label(meanWPD float64) Quality {
	switch {
	case meanWPD >= q.Excellent:
		return QualityExcellent
	case meanWPD >= q.Good:
		return QualityGood
	default:
		return QualityPoor
	}
}
