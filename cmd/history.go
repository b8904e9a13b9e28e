package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/store"
	"github.com/sells-group/windcover/internal/wind"
)

var (
	historyLimit  int
	historyOffset int
	historySince  string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved evaluations, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(historyFormat)
		if err != nil {
			return err
		}
		if format != report.FormatTable && format != report.FormatJSON {
			return eris.Errorf("history supports table and json output, got %q", format)
		}

		env, err := initStoreEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		filter := store.EvaluationFilter{Limit: historyLimit, Offset: historyOffset}
		if historySince != "" {
			if filter.Since, err = wind.ParseDate(historySince, env.Location); err != nil {
				return err
			}
		}

		evals, err := env.Store.ListEvaluations(ctx, filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == report.FormatJSON {
			return report.WriteJSON(out, evals)
		}
		return report.WriteHistory(out, evals)
	},
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyLimit, "limit", 20, "maximum evaluations to list")
	f.IntVar(&historyOffset, "offset", 0, "evaluations to skip")
	f.StringVar(&historySince, "since", "", "only evaluations saved on or after this date, YYYY-MM-DD")
	f.StringVar(&historyFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(historyCmd)
}
