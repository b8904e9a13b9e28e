package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/scenario"
	"github.com/sells-group/windcover/internal/wind"
)

var (
	sweepLat       float64
	sweepLng       float64
	sweepStart     string
	sweepEnd       string
	sweepScenarios string
	sweepFormat    string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare coverage across scenarios for one point",
	Long:  "Fetches wind samples and the building inventory once, then evaluates every scenario in a YAML sweep file against them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(sweepFormat)
		if err != nil {
			return err
		}
		if format != report.FormatTable && format != report.FormatJSON {
			return eris.Errorf("sweep supports table and json output, got %q", format)
		}

		sweep, err := scenario.Load(sweepScenarios, cfg.Scenario)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := wind.ParseRange(sweepStart, sweepEnd, env.Location)
		if err != nil {
			return err
		}
		base := env.query(wind.Point{Lat: sweepLat, Lng: sweepLng}, r)
		if err := base.Validate(); err != nil {
			return err
		}

		var (
			samples []wind.WindSample
			bs      *wind.BuildingSummary
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			s, err := env.Wind.Samples(gctx, base.Point, base.Range)
			samples = s
			return err
		})
		g.Go(func() error {
			b, err := env.Buildings.Summary(gctx, base.Point, base.Filter)
			bs = b
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if len(samples) == 0 {
			return explain(wind.ErrNoWindData)
		}

		results, err := scenario.Run(samples, *bs, base, env.options(), sweep)
		if err != nil {
			return err
		}
		zap.L().Info("sweep complete",
			zap.Int("scenarios", len(results)),
			zap.Int("samples", len(samples)),
			zap.Int("buildings", bs.Count),
		)

		out := cmd.OutOrStdout()
		if format == report.FormatJSON {
			return report.WriteJSON(out, results)
		}
		return report.WriteScenarios(out, scenario.Rows(results))
	},
}

func init() {
	f := sweepCmd.Flags()
	f.Float64Var(&sweepLat, "lat", 0, "latitude in decimal degrees (required)")
	f.Float64Var(&sweepLng, "lng", 0, "longitude in decimal degrees (required)")
	f.StringVar(&sweepStart, "start", "", "first day, YYYY-MM-DD (required)")
	f.StringVar(&sweepEnd, "end", "", "day after the last day, YYYY-MM-DD (required)")
	f.StringVar(&sweepScenarios, "scenarios", "", "YAML sweep file (required)")
	f.StringVar(&sweepFormat, "format", "table", "output format: table or json")
	for _, name := range []string{"lat", "lng", "start", "end", "scenarios"} {
		_ = sweepCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(sweepCmd)
}
