package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/windcover/internal/wind"
)

var (
	lotteryID   string
	lotteryGrid string
	lotterySeed uint64
)

var lotteryCmd = &cobra.Command{
	Use:   "lottery",
	Short: "Draw which buildings of a saved evaluation get power",
	Long: "Scatters the evaluation's building count over a WxH raster and powers each building " +
		"with probability equal to the capped coverage ratio. The same seed gives the same map.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		width, height, err := parseGrid(lotteryGrid)
		if err != nil {
			return err
		}

		env, err := initStoreEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		eval, err := env.Store.GetEvaluation(ctx, lotteryID)
		if err != nil {
			return err
		}

		grid := wind.ScatterGrid(width, height, eval.Buildings.Count, lotterySeed)
		powered := wind.Allocate(grid, eval.Coverage.CappedRatio, lotterySeed)
		on, off := powered.Counts()

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprint(out, powered.String())
		_, _ = fmt.Fprintf(out, "\n# powered %d  o unpowered %d  (%.0f%% drawn, %.0f%% expected)\n",
			on, off, powered.Fraction()*100, eval.Coverage.CappedRatio*100)
		if eval.Buildings.Count > grid.Count() {
			_, _ = fmt.Fprintf(out, "%d buildings shown of %d\n", grid.Count(), eval.Buildings.Count)
		}
		return nil
	},
}

// parseGrid parses "WxH".
func parseGrid(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, eris.Wrapf(err, "parse grid %q (want WxH)", s)
	}
	if w < 1 || h < 1 {
		return 0, 0, eris.Errorf("grid %q must be at least 1x1", s)
	}
	return w, h, nil
}

func init() {
	f := lotteryCmd.Flags()
	f.StringVar(&lotteryID, "id", "", "saved evaluation ID (required)")
	f.StringVar(&lotteryGrid, "grid", "40x20", "raster size, WxH")
	f.Uint64Var(&lotterySeed, "seed", 1, "random seed")
	_ = lotteryCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(lotteryCmd)
}
