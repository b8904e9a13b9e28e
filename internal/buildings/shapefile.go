package buildings

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/geo"
)

// FieldMap names the DBF attributes holding each footprint property.
type FieldMap struct {
	ID         string
	Confidence string
	Height     string
}

// DefaultFieldMap matches the global ML building footprint exports.
func DefaultFieldMap() FieldMap {
	return FieldMap{ID: "id", Confidence: "confidence", Height: "height"}
}

// ReadShapefile reads polygon footprints from a .shp file. Records without a
// polygon are skipped. A missing ID field falls back to the record number,
// a missing confidence field to 1, and a missing height field to 0.
func ReadShapefile(path string, fields FieldMap) ([]Footprint, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "buildings: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := geo.FieldIndex(reader, fields.ID)
	confIdx := geo.FieldIndex(reader, fields.Confidence)
	heightIdx := geo.FieldIndex(reader, fields.Height)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var (
		out     []Footprint
		skipped int
	)
	for reader.Next() {
		n, shape := reader.Shape()
		mp := geo.Footprint(shape)
		centroid, ok := geo.Centroid(mp)
		if !ok {
			skipped++
			continue
		}

		fp := Footprint{
			SourceID:   base + ":" + strconv.Itoa(n),
			Centroid:   centroid,
			Confidence: 1,
			Geometry:   mp,
		}
		if idIdx >= 0 {
			if id := attr(reader, idIdx); id != "" {
				fp.SourceID = id
			}
		}
		if confIdx >= 0 {
			fp.Confidence = parseAttr(attr(reader, confIdx), 1)
		}
		if heightIdx >= 0 {
			fp.HeightMeters = parseAttr(attr(reader, heightIdx), 0)
		}
		out = append(out, fp)
	}
	if err := reader.Err(); err != nil {
		return out, eris.Wrapf(err, "buildings: read shapefile %s", path)
	}

	zap.L().Info("buildings: shapefile read",
		zap.String("path", path),
		zap.Int("footprints", len(out)),
		zap.Int("skipped", skipped),
	)
	return out, nil
}

// LoadShapefile resolves location (local path or URL, .shp or .zip) and reads it.
func LoadShapefile(ctx context.Context, opener *fetcher.Opener, location, tempDir string, fields FieldMap) ([]Footprint, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	work, err := os.MkdirTemp(tempDir, "windcover-shp-")
	if err != nil {
		return nil, eris.Wrap(err, "buildings: create work dir")
	}
	defer func() { _ = os.RemoveAll(work) }()

	local, err := opener.OpenToFile(ctx, location, filepath.Join(work, filepath.Base(location)))
	if err != nil {
		return nil, eris.Wrapf(err, "buildings: fetch %s", location)
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		files, err := fetcher.ExtractZIP(local, filepath.Join(work, "unzipped"), fetcher.ZIPOptions{Exts: fetcher.ShapefileExts})
		if err != nil {
			return nil, eris.Wrap(err, "buildings: extract archive")
		}
		shpPath, ok := fetcher.FindByExt(files, ".shp")
		if !ok {
			return nil, eris.Errorf("buildings: no .shp file in %s", location)
		}
		local = shpPath
	}
	return ReadShapefile(local, fields)
}

// attr strips the space and NUL padding DBF fields carry.
func attr(reader *shp.Reader, idx int) string {
	return strings.Trim(reader.Attribute(idx), " \x00")
}

func parseAttr(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
