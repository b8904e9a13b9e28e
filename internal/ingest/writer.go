package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/windsource"
)

// SampleWriter persists a batch of decoded messages.
type SampleWriter interface {
	WriteSamples(ctx context.Context, msgs []Message) (int64, error)
}

// PostgresWriter copies batches into wind.samples.
type PostgresWriter struct {
	pool db.Pool
}

// NewPostgresWriter returns a writer on pool. Call windsource.EnsureSchema first.
func NewPostgresWriter(pool db.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

// WriteSamples implements SampleWriter using the COPY protocol.
func (w *PostgresWriter) WriteSamples(ctx context.Context, msgs []Message) (int64, error) {
	rows := make([][]any, 0, len(msgs))
	for _, m := range msgs {
		row, err := windsource.SampleRow(m.Point(), m.Sample())
		if err != nil {
			return 0, eris.Wrap(err, "ingest: encode sample row")
		}
		rows = append(rows, row)
	}
	return db.CopyRows(ctx, w.pool, pgx.Identifier{windsource.SamplesSchema, windsource.SamplesTable}, windsource.SampleColumns, rows)
}
