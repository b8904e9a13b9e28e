package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/buildings"
	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/fetcher"
	"github.com/sells-group/windcover/internal/wind"
)

var buildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "Manage and query the building footprint inventory",
}

var (
	importShp        string
	importIDField    string
	importConfField  string
	importHeightField string
	countLat         float64
	countLng         float64
	countRadius      float64
)

var buildingsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load footprints from a shapefile (.shp or .zip, local or URL) into PostGIS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("postgres"); err != nil {
			return err
		}

		fields := buildings.DefaultFieldMap()
		if importIDField != "" {
			fields.ID = importIDField
		}
		if importConfField != "" {
			fields.Confidence = importConfField
		}
		if importHeightField != "" {
			fields.Height = importHeightField
		}

		fps, err := buildings.LoadShapefile(ctx, fetcher.NewOpener(cfg.Wind.UserAgent), importShp, "", fields)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
		if err != nil {
			return eris.Wrap(err, "connect postgres")
		}
		defer pool.Close()

		res, err := buildings.Import(ctx, pool, fps)
		if err != nil {
			return err
		}
		zap.L().Info("footprint import complete",
			zap.String("source", importShp),
			zap.Int("read", len(fps)),
			zap.Int64("inserted", res.Inserted),
			zap.Int64("updated", res.Updated),
			zap.Int64("unchanged", res.Unchanged),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d inserted, %d updated, %d unchanged\n",
			res.Inserted, res.Updated, res.Unchanged)
		return nil
	},
}

var buildingsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count qualifying buildings around a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env := &appEnv{Opener: fetcher.NewOpener(cfg.Wind.UserAgent)}
		defer env.Close()
		if cfg.Buildings.Source == "postgis" {
			if err := cfg.Validate("postgres"); err != nil {
				return err
			}
			pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
			if err != nil {
				return eris.Wrap(err, "connect postgres")
			}
			env.Pool = pool
		}
		src, err := initBuildingSource(ctx, env)
		if err != nil {
			return err
		}

		p := wind.Point{Lat: countLat, Lng: countLng}
		if err := p.Validate(); err != nil {
			return err
		}
		filter := cfg.Filter()
		if countRadius > 0 {
			filter.RadiusMeters = countRadius
		}

		sum, err := src.Summary(ctx, p, filter)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"%d buildings within %.0f m (confidence >= %.2f, height >= %.1f m)\n",
			sum.Count, sum.RadiusMeters, sum.MinConfidence, sum.MinHeightMeters)
		return nil
	},
}

func init() {
	imp := buildingsImportCmd.Flags()
	imp.StringVar(&importShp, "shp", "", "shapefile path or URL, .shp or .zip (required)")
	imp.StringVar(&importIDField, "id-field", "", "DBF field holding the footprint ID")
	imp.StringVar(&importConfField, "confidence-field", "", "DBF field holding the detection confidence")
	imp.StringVar(&importHeightField, "height-field", "", "DBF field holding the height in metres")
	_ = buildingsImportCmd.MarkFlagRequired("shp")

	cnt := buildingsCountCmd.Flags()
	cnt.Float64Var(&countLat, "lat", 0, "latitude in decimal degrees (required)")
	cnt.Float64Var(&countLng, "lng", 0, "longitude in decimal degrees (required)")
	cnt.Float64Var(&countRadius, "radius", 0, "search radius in metres (default from config)")
	_ = buildingsCountCmd.MarkFlagRequired("lat")
	_ = buildingsCountCmd.MarkFlagRequired("lng")

	buildingsCmd.AddCommand(buildingsImportCmd, buildingsCountCmd)
	rootCmd.AddCommand(buildingsCmd)
}
