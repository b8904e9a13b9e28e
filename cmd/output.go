package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/report"
	"github.com/sells-group/windcover/internal/sink"
	"github.com/sells-group/windcover/internal/wind"
)

// writeEvaluation renders eval in format to output, or to stdout when output
// is empty. XLSX always needs an output path.
func writeEvaluation(out io.Writer, eval *wind.Evaluation, format report.Format, output string) error {
	if format == report.FormatXLSX {
		if output == "" {
			return eris.New("xlsx format requires --output")
		}
		if err := report.WriteXLSX(output, eval); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", output))
		return nil
	}

	if output == "" {
		return report.Write(out, eval, format)
	}
	f, err := os.Create(output)
	if err != nil {
		return eris.Wrapf(err, "create %s", output)
	}
	if err := report.Write(f, eval, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", output)
	}
	zap.L().Info("report written", zap.String("path", output))
	return nil
}

// scenarioFlags overrides the configured scenario with non-zero flag values.
func scenarioFlags(base wind.ScenarioParams, turbines int, load float64) wind.ScenarioParams {
	if turbines != 0 {
		base.NumTurbines = turbines
	}
	if load != 0 {
		base.DailyLoadPerHouseholdKWh = load
	}
	return base
}

// explain turns sentinel errors into the messages users see.
func explain(err error) error {
	if errors.Is(err, wind.ErrNoWindData) {
		return fmt.Errorf("no wind data available: %w", err)
	}
	return err
}

// openInflux connects the time-series sink when requested.
func openInflux(ctx context.Context, enabled bool) (*sink.InfluxSink, error) {
	if !enabled {
		return nil, nil
	}
	if err := cfg.Validate("influx"); err != nil {
		return nil, err
	}
	return sink.NewInfluxSink(ctx, cfg.Influx)
}
