package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// MergeSpec describes a keyed bulk merge into an existing table.
type MergeSpec struct {
	Table   string   // schema-qualified target, e.g. "buildings.footprints"
	Columns []string // columns supplied by each row
	Keys    []string // columns forming the unique constraint
}

// MergeResult counts what a merge did to the target table.
type MergeResult struct {
	Inserted  int64 `json:"inserted"`
	Updated   int64 `json:"updated"`
	Unchanged int64 `json:"unchanged"`
}

// Total is the number of rows supplied.
func (r MergeResult) Total() int64 {
	return r.Inserted + r.Updated + r.Unchanged
}

// Add accumulates another batch.
func (r MergeResult) Add(o MergeResult) MergeResult {
	return MergeResult{
		Inserted:  r.Inserted + o.Inserted,
		Updated:   r.Updated + o.Updated,
		Unchanged: r.Unchanged + o.Unchanged,
	}
}

func (s MergeSpec) validate() error {
	if len(s.Columns) == 0 {
		return eris.New("db: merge: no columns specified")
	}
	if len(s.Keys) == 0 {
		return eris.New("db: merge: no key columns specified")
	}
	cols := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		cols[c] = true
	}
	for _, k := range s.Keys {
		if !cols[k] {
			return eris.Errorf("db: merge: key %q is not a supplied column", k)
		}
	}
	return nil
}

// valueColumns are the supplied columns outside the key.
func (s MergeSpec) valueColumns() []string {
	keys := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		keys[k] = true
	}
	var out []string
	for _, c := range s.Columns {
		if !keys[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s MergeSpec) stagingTable() string {
	return "_merge_" + strings.ReplaceAll(s.Table, ".", "_")
}

// mergeSQL inserts staged rows and rewrites existing rows only when a value
// column differs. RETURNING reports inserts as true (xmax is 0 for a fresh
// tuple) and updates as false; untouched rows return nothing.
func (s MergeSpec) mergeSQL() string {
	cols := quoteAndJoin(s.Columns)
	values := s.valueColumns()

	action := "NOTHING"
	if len(values) > 0 {
		set := make([]string, len(values))
		cur := make([]string, len(values))
		exc := make([]string, len(values))
		for i, c := range values {
			q := pgx.Identifier{c}.Sanitize()
			set[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
			cur[i] = "cur." + q
			exc[i] = "EXCLUDED." + q
		}
		action = fmt.Sprintf("UPDATE SET %s WHERE (%s) IS DISTINCT FROM (%s)",
			strings.Join(set, ", "), strings.Join(cur, ", "), strings.Join(exc, ", "))
	}

	return fmt.Sprintf(
		"INSERT INTO %s AS cur (%s) SELECT %s FROM %s ON CONFLICT (%s) DO %s RETURNING (xmax = 0) AS inserted",
		sanitizeTable(s.Table), cols, cols,
		pgx.Identifier{s.stagingTable()}.Sanitize(),
		quoteAndJoin(s.Keys), action,
	)
}

// Merge stages rows with COPY in a transaction-scoped temp table, then merges
// them into the target keyed by spec.Keys. Re-merging identical rows leaves
// the target untouched.
func Merge(ctx context.Context, pool Pool, spec MergeSpec, rows [][]any) (MergeResult, error) {
	if err := spec.validate(); err != nil {
		return MergeResult{}, err
	}
	if len(rows) == 0 {
		return MergeResult{}, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return MergeResult{}, eris.Wrap(err, "db: merge: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := spec.stagingTable()
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(), sanitizeTable(spec.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return MergeResult{}, eris.Wrapf(err, "db: merge: stage %s", spec.Table)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, spec.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return MergeResult{}, eris.Wrapf(err, "db: merge: copy into staging for %s", spec.Table)
	}

	res, err := collectMerge(ctx, tx, spec.mergeSQL())
	if err != nil {
		return MergeResult{}, eris.Wrapf(err, "db: merge into %s", spec.Table)
	}
	res.Unchanged = copied - res.Inserted - res.Updated

	if err := tx.Commit(ctx); err != nil {
		return MergeResult{}, eris.Wrap(err, "db: merge: commit tx")
	}
	return res, nil
}

func collectMerge(ctx context.Context, tx pgx.Tx, sql string) (MergeResult, error) {
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return MergeResult{}, err
	}
	defer rows.Close()

	var res MergeResult
	for rows.Next() {
		var inserted bool
		if err := rows.Scan(&inserted); err != nil {
			return MergeResult{}, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, rows.Err()
}

// sanitizeTable quotes an optionally schema-qualified table name.
func sanitizeTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
