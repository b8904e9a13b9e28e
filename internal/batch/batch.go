package batch

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/windcover/internal/wind"
)

// Evaluator is satisfied by *wind.Estimator.
type Evaluator interface {
	Evaluate(ctx context.Context, q wind.Query) (*wind.Evaluation, error)
}

// Result is the outcome for one site. Err is set when the site failed.
type Result struct {
	Site       Site             `json:"site"`
	Evaluation *wind.Evaluation `json:"evaluation,omitempty"`
	Err        error            `json:"-"`
	Error      string           `json:"error,omitempty"`
}

// Summary counts outcomes of a run.
type Summary struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// OnResult is called for every finished site, possibly concurrently.
type OnResult func(ctx context.Context, r Result) error

// Run evaluates every site with template's range, turbine, scenario and
// filter, at most concurrency at a time. A failing site does not stop the
// others; an OnResult error does. Results keep the order of sites.
func Run(ctx context.Context, ev Evaluator, sites []Site, template wind.Query, concurrency int, onResult OnResult) ([]Result, Summary, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(sites))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, site := range sites {
		g.Go(func() error {
			log := zap.L().With(zap.String("site", site.Name))
			q := template
			q.Point = site.Point

			r := Result{Site: site}
			eval, err := ev.Evaluate(gctx, q)
			if err != nil {
				failed.Add(1)
				r.Err = err
				r.Error = err.Error()
				log.Warn("batch: evaluation failed", zap.Error(err))
			} else {
				succeeded.Add(1)
				r.Evaluation = eval
				log.Debug("batch: evaluation complete",
					zap.Int("homes_supported", eval.Coverage.HomesSupported),
					zap.String("quality", string(eval.Annual.Quality)),
				)
			}
			results[i] = r

			if onResult != nil {
				if err := onResult(gctx, r); err != nil {
					return eris.Wrapf(err, "batch: handle result for %s", site.Name)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	sum := Summary{Succeeded: succeeded.Load(), Failed: failed.Load()}
	zap.L().Info("batch complete",
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("failed", sum.Failed),
	)
	return results, sum, err
}
