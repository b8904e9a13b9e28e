// Package batch evaluates many points concurrently.
package batch

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/wind"
)

// Site is one row of a points file.
type Site struct {
	Name  string     `json:"name"`
	Point wind.Point `json:"point"`
}

var pointColumns = map[string][]string{
	"lat": {"lat", "latitude", "y"},
	"lng": {"lng", "lon", "long", "longitude", "x"},
}

// ReadSites reads a CSV with lat and lng columns and an optional name column
// from a local path or URL. Rows without a name are named by their line.
func ReadSites(ctx context.Context, opener *fetcher.Opener, location string) ([]Site, error) {
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		Comment:   '#',
		TrimSpace: true,
	})

	var (
		idx   map[string]int
		name  = -1
		sites []Site
		line  = 1
	)
	for row := range rowCh {
		line++
		if idx == nil {
			header := <-headerCh
			if idx, err = fetcher.ColumnIndex(header, pointColumns); err != nil {
				return nil, eris.Wrapf(err, "batch: %s", location)
			}
			for i, h := range header {
				if h == "name" || h == "id" {
					name = i
					break
				}
			}
		}
		site, err := parseSite(row, idx, name, line)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: %s line %d", location, line)
		}
		sites = append(sites, site)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "batch: read %s", location)
	}
	return sites, nil
}

func parseSite(row []string, idx map[string]int, nameCol, line int) (Site, error) {
	field := func(col string) (float64, error) {
		i := idx[col]
		if i >= len(row) {
			return 0, eris.Errorf("missing %s", col)
		}
		return strconv.ParseFloat(row[i], 64)
	}
	lat, err := field("lat")
	if err != nil {
		return Site{}, eris.Wrap(err, "parse lat")
	}
	lng, err := field("lng")
	if err != nil {
		return Site{}, eris.Wrap(err, "parse lng")
	}
	s := Site{Name: "line-" + strconv.Itoa(line), Point: wind.Point{Lat: lat, Lng: lng}}
	if nameCol >= 0 && nameCol < len(row) && row[nameCol] != "" {
		s.Name = row[nameCol]
	}
	if err := s.Point.Validate(); err != nil {
		return Site{}, err
	}
	return s, nil
}
