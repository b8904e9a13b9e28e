// Package windsource provides wind.WindSource implementations backed by
// files, a forecast API and Postgres, plus a caching wrapper.
package windsource

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/wind"
)

var sampleColumns = map[string][]string{
	"time": {"timestamp", "time", "ts", "datetime"},
	"u":    {"u", "u100", "u_100m"},
	"v":    {"v", "v100", "v_100m"},
}

// FileSource reads samples for a single site from a CSV, XLSX or JSON file.
// The location may be a local path or an http(s):// or ftp:// URL. The query
// point is ignored because the file describes one site.
type FileSource struct {
	Location string
	Opener   *fetcher.Opener
	// TempDir receives downloaded spreadsheets. Default: os.TempDir().
	TempDir string
}

// NewFileSource returns a FileSource using a default Opener.
func NewFileSource(location, userAgent string) *FileSource {
	return &FileSource{Location: location, Opener: fetcher.NewOpener(userAgent)}
}

// Samples returns the samples that fall inside r.
func (s *FileSource) Samples(ctx context.Context, _ wind.Point, r wind.DateRange) ([]wind.WindSample, error) {
	var (
		samples []wind.WindSample
		err     error
	)
	switch strings.ToLower(filepath.Ext(strings.SplitN(s.Location, "?", 2)[0])) {
	case ".xlsx":
		samples, err = s.readXLSX(ctx)
	case ".json":
		samples, err = s.readJSON(ctx)
	default:
		samples, err = s.readCSV(ctx)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "windsource: read %s", s.Location)
	}

	out := samples[:0]
	for _, smp := range samples {
		if r.Contains(smp.Time) {
			out = append(out, smp)
		}
	}
	zap.L().Debug("windsource: file samples loaded",
		zap.String("location", s.Location),
		zap.Int("total", len(samples)),
		zap.Int("in_range", len(out)),
	)
	return out, nil
}

func (s *FileSource) readCSV(ctx context.Context) ([]wind.WindSample, error) {
	rc, err := s.Opener.Open(ctx, s.Location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	// cancel stops the parser goroutine on early return
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
		idx     map[string]int
		samples []wind.WindSample
		line    = 1
	)
	for row := range rowCh {
		line++
		if idx == nil {
			if idx, err = fetcher.ColumnIndex(<-headerCh, sampleColumns); err != nil {
				return nil, err
			}
		}
		smp, err := parseRow(row, idx)
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		samples = append(samples, smp)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *FileSource) readXLSX(ctx context.Context) ([]wind.WindSample, error) {
	path := s.Location
	if fetcher.IsRemote(s.Location) {
		dir := s.TempDir
		if dir == "" {
			dir = os.TempDir()
		}
		// Concurrent evaluations must not share a download.
		tmp, err := os.CreateTemp(dir, "windcover-samples-*.xlsx")
		if err != nil {
			return nil, eris.Wrap(err, "windsource: create temp file")
		}
		_ = tmp.Close()
		defer func() { _ = os.Remove(tmp.Name()) }()

		if path, err = s.Opener.OpenToFile(ctx, s.Location, tmp.Name()); err != nil {
			return nil, err
		}
	}

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx, err := fetcher.ColumnIndex(rows[0], sampleColumns)
	if err != nil {
		return nil, err
	}
	samples := make([]wind.WindSample, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		smp, err := parseRow(row, idx)
		if err != nil {
			return nil, eris.Wrapf(err, "row %d", i+2)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

type jsonSample struct {
	Timestamp time.Time `json:"timestamp"`
	U         float64   `json:"u"`
	V         float64   `json:"v"`
}

func (s *FileSource) readJSON(ctx context.Context) ([]wind.WindSample, error) {
	rc, err := s.Opener.Open(ctx, s.Location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	var samples []wind.WindSample
	_, err = fetcher.EachJSON(ctx, rc, func(js jsonSample) error {
		samples = append(samples, wind.WindSample{Time: js.Timestamp, U: js.U, V: js.V})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "windsource: read %s", s.Location)
	}
	return samples, nil
}

func parseRow(row []string, idx map[string]int) (wind.WindSample, error) {
	get := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", eris.Errorf("missing %s value", col)
		}
		return strings.TrimSpace(row[i]), nil
	}

	ts, err := get("time")
	if err != nil {
		return wind.WindSample{}, err
	}
	t, err := parseTime(ts)
	if err != nil {
		return wind.WindSample{}, err
	}

	var uv [2]float64
	for i, col := range []string{"u", "v"} {
		raw, err := get(col)
		if err != nil {
			return wind.WindSample{}, err
		}
		if uv[i], err = strconv.ParseFloat(raw, 64); err != nil {
			return wind.WindSample{}, eris.Wrapf(err, "parse %s", col)
		}
	}
	return wind.WindSample{Time: t, U: uv[0], V: uv[1]}, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime accepts RFC3339 and the zone-less layouts weather exports use.
// Zone-less values are UTC.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognised timestamp %q", s)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
