package buildings

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/geo"
)

const importBatchSize = 5000

var footprintColumns = []string{"source_id", "confidence", "height_m", "centroid", "geom"}

var footprintMerge = db.MergeSpec{
	Table:   "buildings.footprints",
	Columns: footprintColumns,
	Keys:    []string{"source_id"},
}

// Import merges footprints into buildings.footprints in batches, keyed by
// source_id so re-importing a tile replaces changed rows and skips the rest.
func Import(ctx context.Context, pool db.Pool, footprints []Footprint) (db.MergeResult, error) {
	var total db.MergeResult
	if err := EnsureSchema(ctx, pool); err != nil {
		return total, err
	}

	log := zap.L().With(zap.String("component", "buildings.import"))
	for start := 0; start < len(footprints); start += importBatchSize {
		end := min(start+importBatchSize, len(footprints))
		rows, err := footprintRows(footprints[start:end])
		if err != nil {
			return total, err
		}
		res, err := db.Merge(ctx, pool, footprintMerge, rows)
		if err != nil {
			return total, eris.Wrapf(err, "buildings: import batch at %d", start)
		}
		total = total.Add(res)
		log.Info("footprint batch imported",
			zap.Int("offset", start),
			zap.Int64("inserted", res.Inserted),
			zap.Int64("updated", res.Updated),
			zap.Int64("unchanged", res.Unchanged),
		)
	}
	return total, nil
}

func footprintRows(fps []Footprint) ([][]any, error) {
	rows := make([][]any, 0, len(fps))
	for _, fp := range fps {
		centroid, err := geo.PointEWKB(fp.Centroid)
		if err != nil {
			return nil, eris.Wrapf(err, "buildings: encode centroid of %s", fp.SourceID)
		}
		var shape []byte
		if fp.Geometry != nil {
			if shape, err = geo.EncodeEWKB(fp.Geometry); err != nil {
				return nil, eris.Wrapf(err, "buildings: encode geometry of %s", fp.SourceID)
			}
		}
		rows = append(rows, []any{fp.SourceID, fp.Confidence, fp.HeightMeters, centroid, shape})
	}
	return rows, nil
}
