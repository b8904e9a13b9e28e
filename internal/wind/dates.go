package wind

import (
	"time"

	"github.com/rotisserie/eris"
)

// ParseDate accepts YYYY-MM-DD (midnight in loc) or RFC3339.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(ErrInvalidQuery, "bad date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t, nil
}

// ParseRange parses a half-open [start, end) range.
func ParseRange(start, end string, loc *time.Location) (DateRange, error) {
	s, err := ParseDate(start, loc)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end, loc)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
