package main

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/batch"
	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/sink"
	"github.com/sells-group/windcover/internal/wind"
)

var (
	batchPoints      string
	batchStart       string
	batchEnd         string
	batchTurbines    int
	batchLoad        float64
	batchConcurrency int
	batchFormat      string
	batchSave        bool
	batchInflux      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate every point in a CSV concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(batchFormat)
		if err != nil {
			return err
		}
		if format != report.FormatTable && format != report.FormatJSON {
			return eris.Errorf("batch supports table and json output, got %q", format)
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := wind.ParseRange(batchStart, batchEnd, env.Location)
		if err != nil {
			return err
		}
		sites, err := batch.ReadSites(ctx, env.Opener, batchPoints)
		if err != nil {
			return err
		}

		influx, err := openInflux(ctx, batchInflux)
		if err != nil {
			return err
		}
		if influx != nil {
			defer influx.Close()
		}

		template := env.query(wind.Point{}, r)
		template.Scenario = scenarioFlags(template.Scenario, batchTurbines, batchLoad)

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		results, sum, err := batch.Run(ctx, env.Estimator, sites, template, concurrency,
			persistResult(env, influx))
		if err != nil {
			return err
		}
		zap.L().Info("batch finished",
			zap.String("points", batchPoints),
			zap.Int("sites", len(sites)),
			zap.Int64("succeeded", sum.Succeeded),
			zap.Int64("failed", sum.Failed),
		)

		out := cmd.OutOrStdout()
		if format == report.FormatJSON {
			return report.WriteJSON(out, results)
		}
		rows := make([]report.ScenarioRow, 0, len(results))
		for _, res := range results {
			if res.Evaluation == nil {
				continue
			}
			rows = append(rows, report.ScenarioRow{
				Name:     res.Site.Name,
				Scenario: res.Evaluation.Scenario,
				Coverage: res.Evaluation.Coverage,
			})
		}
		return report.WriteScenarios(out, rows)
	},
}

// persistResult saves successful evaluations and writes them to Influx when
// either is enabled. Writes are serialised.
func persistResult(env *appEnv, influx *sink.InfluxSink) batch.OnResult {
	if !batchSave && influx == nil {
		return nil
	}
	var mu sync.Mutex
	return func(ctx context.Context, r batch.Result) error {
		if r.Evaluation == nil {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if batchSave {
			if err := env.Store.SaveEvaluation(ctx, r.Evaluation); err != nil {
				return err
			}
		}
		if influx != nil {
			return influx.WriteEvaluation(ctx, r.Evaluation)
		}
		return nil
	}
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchPoints, "points", "", "CSV of points with lat, lng and optional name columns (required)")
	f.StringVar(&batchStart, "start", "", "first day, YYYY-MM-DD (required)")
	f.StringVar(&batchEnd, "end", "", "day after the last day, YYYY-MM-DD (required)")
	f.IntVar(&batchTurbines, "turbines", 0, "number of turbines (default from config)")
	f.Float64Var(&batchLoad, "load", 0, "daily household load in kWh (default from config)")
	f.IntVar(&batchConcurrency, "concurrency", 0, "points evaluated at once (default from config)")
	f.StringVar(&batchFormat, "format", "table", "output format: table or json")
	f.BoolVar(&batchSave, "save", false, "save every successful evaluation")
	f.BoolVar(&batchInflux, "influx", false, "write every successful evaluation to InfluxDB")
	for _, name := range []string{"points", "start", "end"} {
		_ = batchCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(batchCmd)
}
