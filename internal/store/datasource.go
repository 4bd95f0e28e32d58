package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/querysql"
	"github.com/roach88/tablegraph/internal/source"
)

var _ source.DataSource = (*Store)(nil)

// Rows implements source.DataSource by compiling src to SQL and streaming
// the result set. Query failures are reported as SOURCE_UNAVAILABLE with
// the driver error preserved.
func (s *Store) Rows(ctx context.Context, src *mapping.Source) (source.RowIter, error) {
	if src == nil {
		return nil, source.Unavailable(src, fmt.Errorf("nil source"))
	}
	query, args, err := querysql.NewSQLCompiler().Compile(src.Query())
	if err != nil {
		return nil, source.Unavailable(src, fmt.Errorf("compile source: %w", err))
	}
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, source.Unavailable(src, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, source.Unavailable(src, err)
	}
	return &rowIter{src: src, rows: rows, columns: columns}, nil
}

// rowIter streams *sql.Rows as records. Holds one pooled connection
// until closed.
type rowIter struct {
	src     *mapping.Source
	rows    *sql.Rows
	columns []string
	closed  bool
}

func (it *rowIter) Next(ctx context.Context) (ir.Record, bool, error) {
	if it.closed {
		return ir.Record{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return ir.Record{}, false, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return ir.Record{}, false, source.Unavailable(it.src, err)
		}
		return ir.Record{}, false, nil
	}

	raw := make([]any, len(it.columns))
	ptrs := make([]any, len(it.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return ir.Record{}, false, source.Unavailable(it.src, fmt.Errorf("scan row: %w", err))
	}

	cols := make([]ir.Column, len(it.columns))
	for i, name := range it.columns {
		v, err := toValue(raw[i])
		if err != nil {
			return ir.Record{}, false, source.Unavailable(it.src, fmt.Errorf("column %q: %w", name, err))
		}
		cols[i] = ir.C(name, v)
	}
	rec, err := ir.NewRecord(cols...)
	if err != nil {
		// Views may project two columns with the same name.
		return ir.Record{}, false, source.Unavailable(it.src, err)
	}
	return rec, true, nil
}

func (it *rowIter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.rows.Close()
}

// toValue converts a driver value to an ir.Value.
func toValue(v any) (ir.Value, error) {
	switch val := v.(type) {
	case float64:
		return ir.String(strconv.FormatFloat(val, 'f', -1, 64)), nil
	case time.Time:
		return ir.String(val.UTC().Format(time.RFC3339Nano)), nil
	default:
		return ir.FromGo(v)
	}
}
