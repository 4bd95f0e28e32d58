package testutil

import (
	"fmt"

	"github.com/roach88/tablegraph/internal/ir"
)

// Rows builds records sharing one column layout.
//
// Example:
//
//	Rows([]string{"id", "name"},
//	    []any{"7", "Ann"},
//	    []any{"8", nil}, // nil becomes Null
//	)
//
// Panics if a row's width differs from the header or a value has an
// unsupported type. Use only in tests.
func Rows(columns []string, rows ...[]any) []ir.Record {
	out := make([]ir.Record, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			panic(fmt.Sprintf("testutil.Rows: row %d has %d values, want %d", i, len(row), len(columns)))
		}
		cols := make([]ir.Column, len(columns))
		for j, name := range columns {
			v, err := ir.FromGo(row[j])
			if err != nil {
				panic(fmt.Sprintf("testutil.Rows: row %d column %q: %v", i, name, err))
			}
			cols[j] = ir.C(name, v)
		}
		out = append(out, ir.MustRecord(cols...))
	}
	return out
}

// Row builds a single record from alternating name/value arguments.
//
// Example:
//
//	Row("id", "7", "name", "Ann")
func Row(kv ...any) ir.Record {
	if len(kv)%2 != 0 {
		panic("testutil.Row: odd number of arguments")
	}
	cols := make([]ir.Column, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("testutil.Row: argument %d is %T, want string", i, kv[i]))
		}
		v, err := ir.FromGo(kv[i+1])
		if err != nil {
			panic(fmt.Sprintf("testutil.Row: column %q: %v", name, err))
		}
		cols = append(cols, ir.C(name, v))
	}
	return ir.MustRecord(cols...)
}
