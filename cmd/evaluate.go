package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/wind"
)

var (
	evalLat      float64
	evalLng      float64
	evalStart    string
	evalEnd      string
	evalTurbines int
	evalLoad     float64
	evalFormat   string
	evalOutput   string
	evalSave     bool
	evalInflux   bool
	evalDaily    bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate wind energy and building coverage for one point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(evalFormat)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := wind.ParseRange(evalStart, evalEnd, env.Location)
		if err != nil {
			return err
		}
		q := env.query(wind.Point{Lat: evalLat, Lng: evalLng}, r)
		q.Scenario = scenarioFlags(q.Scenario, evalTurbines, evalLoad)

		eval, err := env.Estimator.Evaluate(ctx, q)
		if err != nil {
			return explain(err)
		}

		if evalSave {
			if err := env.Store.SaveEvaluation(ctx, eval); err != nil {
				return eris.Wrap(err, "save evaluation")
			}
			zap.L().Info("evaluation saved", zap.String("id", eval.ID))
		}

		influx, err := openInflux(ctx, evalInflux)
		if err != nil {
			return err
		}
		if influx != nil {
			defer influx.Close()
			if err := influx.WriteEvaluation(ctx, eval); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if err := writeEvaluation(out, eval, format, evalOutput); err != nil {
			return err
		}
		if evalDaily && format == report.FormatTable && evalOutput == "" {
			_, _ = fmt.Fprintln(out)
			return report.WriteDaily(out, eval.Daily)
		}
		return nil
	},
}

func init() {
	f := evaluateCmd.Flags()
	f.Float64Var(&evalLat, "lat", 0, "latitude in decimal degrees (required)")
	f.Float64Var(&evalLng, "lng", 0, "longitude in decimal degrees (required)")
	f.StringVar(&evalStart, "start", "", "first day, YYYY-MM-DD (required)")
	f.StringVar(&evalEnd, "end", "", "day after the last day, YYYY-MM-DD (required)")
	f.IntVar(&evalTurbines, "turbines", 0, "number of turbines (default from config)")
	f.Float64Var(&evalLoad, "load", 0, "daily household load in kWh (default from config)")
	f.StringVar(&evalFormat, "format", "table", "output format: table, json, csv or xlsx")
	f.StringVar(&evalOutput, "output", "", "write the report to this file")
	f.BoolVar(&evalSave, "save", false, "save the evaluation to the store")
	f.BoolVar(&evalInflux, "influx", false, "write daily records and coverage to InfluxDB")
	f.BoolVar(&evalDaily, "daily", false, "also print the per-day table")
	for _, name := range []string{"lat", "lng", "start", "end"} {
		_ = evaluateCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(evaluateCmd)
}
