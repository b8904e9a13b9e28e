package wind

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// hoursPerDay converts a mean instantaneous output into daily energy. The mean
// rate is assumed to hold all day; sub-daily variance is not integrated.
const hoursPerDay = 24

// ComputeDailyRecord reduces the samples of one calendar day to a single
// record. Samples with non-finite components are ignored. Returns ErrEmptyDay
// when nothing usable remains.
func ComputeDailyRecord(samples []WindSample, cfg TurbineConfig) (*DailyWindRecord, error) {
	var n int
	var sumSpeed, sumWPD, sumKW float64
	var day time.Time
	for _, s := range samples {
		if !finite(s.U) || !finite(s.V) {
			continue
		}
		if n == 0 {
			day = s.Time
		}
		speed := Speed(s.U, s.V)
		sumSpeed += speed
		sumWPD += PowerDensity(cfg.AirDensity, speed)
		sumKW += Generation(cfg, speed)
		n++
	}
	if n == 0 {
		return nil, ErrEmptyDay
	}

	meanKW := sumKW / float64(n)
	return &DailyWindRecord{
		Date:             truncateDay(day, day.Location()),
		MeanSpeed:        sumSpeed / float64(n),
		MeanPowerDensity: sumWPD / float64(n),
		MeanGenerationKW: meanKW,
		EnergyKWh:        meanKW * hoursPerDay,
		Samples:          n,
	}, nil
}

// DayGroup holds the samples of one calendar day.
type DayGroup struct {
	Date    time.Time
	Samples []WindSample
}

// GroupByDay buckets samples by calendar day in loc (UTC when nil). Groups are
// returned in ascending date order and samples keep their input order.
func GroupByDay(samples []WindSample, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.UTC
	}
	idx := make(map[time.Time]int)
	var groups []DayGroup
	for _, s := range samples {
		d := truncateDay(s.Time, loc)
		i, ok := idx[d]
		if !ok {
			i = len(groups)
			idx[d] = i
			groups = append(groups, DayGroup{Date: d})
		}
		groups[i].Samples = append(groups[i].Samples, s)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Date.Before(groups[b].Date) })
	return groups
}

// DailyRecords groups samples by day and computes one record per day that has
// usable samples. Empty days are dropped, never averaged.
func DailyRecords(samples []WindSample, cfg TurbineConfig, loc *time.Location) ([]DailyWindRecord, error) {
	groups := GroupByDay(samples, loc)
	records := make([]DailyWindRecord, 0, len(groups))
	for _, g := range groups {
		rec, err := ComputeDailyRecord(g.Samples, cfg)
		if err != nil {
			if errors.Is(err, ErrEmptyDay) {
				continue
			}
			return nil, eris.Wrapf(err, "wind: daily record for %s", g.Date.Format("2006-01-02"))
		}
		rec.Date = g.Date
		records = append(records, *rec)
	}
	return records, nil
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
