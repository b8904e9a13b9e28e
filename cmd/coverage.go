package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/wind"
)

var (
	coverageID       string
	coverageTurbines int
	coverageLoad     float64
	coverageFormat   string
	coverageSave     bool
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Recompute building coverage of a saved evaluation for another scenario",
	Long:  "Reuses the saved wind and building data of an evaluation. Nothing is fetched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(coverageFormat)
		if err != nil {
			return err
		}
		if format == report.FormatXLSX {
			return eris.New("coverage supports table, json and csv output")
		}

		env, err := initStoreEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		eval, err := env.Store.GetEvaluation(ctx, coverageID)
		if err != nil {
			return err
		}

		s := scenarioFlags(eval.Scenario, coverageTurbines, coverageLoad)
		updated, err := wind.Recompute(eval, s, cfg.Quality)
		if err != nil {
			return err
		}

		if coverageSave {
			updated.ID, updated.CreatedAt = "", time.Time{}
			if err := env.Store.SaveEvaluation(ctx, updated); err != nil {
				return eris.Wrap(err, "save evaluation")
			}
			zap.L().Info("recomputed evaluation saved",
				zap.String("source_id", eval.ID),
				zap.String("id", updated.ID),
			)
		}
		return report.Write(cmd.OutOrStdout(), updated, format)
	},
}

func init() {
	f := coverageCmd.Flags()
	f.StringVar(&coverageID, "id", "", "saved evaluation ID (required)")
	f.IntVar(&coverageTurbines, "turbines", 0, "number of turbines (default from the evaluation)")
	f.Float64Var(&coverageLoad, "load", 0, "daily household load in kWh (default from the evaluation)")
	f.StringVar(&coverageFormat, "format", "table", "output format: table, json or csv")
	f.BoolVar(&coverageSave, "save", false, "save the recomputed evaluation under a new ID")
	_ = coverageCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(coverageCmd)
}
