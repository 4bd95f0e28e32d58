// Package join evaluates inner joins between child and parent rows in
// memory.
//
// Semantics match querysql's compiled INNER JOIN: a child row is emitted
// once per parent row satisfying every condition, values compare by
// lexical text, and NULL never matches.
package join

import (
	"fmt"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/queryir"
	"github.com/roach88/tablegraph/internal/termmap"
)

// Index maps join keys to the parent rows carrying them.
//
// Index is immutable after construction and safe for concurrent reads.
type Index struct {
	conds   []queryir.ColumnEquals
	buckets map[string][]ir.Record
	rows    int
}

// NewIndex indexes parent rows by their values for the conditions'
// parent columns. Rows with a NULL join column are never matched and are
// left out. A parent row lacking a join column fails with MISSING_COLUMN.
func NewIndex(parent []ir.Record, conds []queryir.ColumnEquals) (*Index, error) {
	if len(conds) == 0 {
		return nil, fmt.Errorf("join index needs at least one condition")
	}
	ix := &Index{
		conds:   append([]queryir.ColumnEquals(nil), conds...),
		buckets: make(map[string][]ir.Record),
	}
	for i, rec := range parent {
		key, ok, err := joinKey(rec, conds, func(c queryir.ColumnEquals) string { return c.Parent })
		if err != nil {
			return nil, fmt.Errorf("parent row %d: %w", i, err)
		}
		if !ok {
			continue
		}
		ix.buckets[key] = append(ix.buckets[key], rec)
		ix.rows++
	}
	return ix, nil
}

// Match returns the parent rows joining with child, in parent order.
// The returned slice must not be modified.
func (ix *Index) Match(child ir.Record) ([]ir.Record, error) {
	key, ok, err := joinKey(child, ix.conds, func(c queryir.ColumnEquals) string { return c.Child })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ix.buckets[key], nil
}

// Len returns the number of indexed parent rows.
func (ix *Index) Len() int {
	return ix.rows
}

// Conditions returns a copy of the index's join conditions.
func (ix *Index) Conditions() []queryir.ColumnEquals {
	return append([]queryir.ColumnEquals(nil), ix.conds...)
}

// Rows evaluates child ⋈ parent and returns the child side of every
// matching pair: one row per (child, matching parent), child order first.
func Rows(child, parent []ir.Record, conds []queryir.ColumnEquals) ([]ir.Record, error) {
	ix, err := NewIndex(parent, conds)
	if err != nil {
		return nil, err
	}
	var out []ir.Record
	for i, rec := range child {
		matches, err := ix.Match(rec)
		if err != nil {
			return nil, fmt.Errorf("child row %d: %w", i, err)
		}
		for range matches {
			out = append(out, rec)
		}
	}
	return out, nil
}

// joinKey builds the lookup key for rec from the raw text of its join
// columns, matching the byte comparison of CAST(... AS TEXT) =. ok is
// false when any join column is NULL.
func joinKey(rec ir.Record, conds []queryir.ColumnEquals, column func(queryir.ColumnEquals) string) (string, bool, error) {
	parts := make([]string, len(conds))
	for i, c := range conds {
		name := column(c)
		v, present := rec.Lookup(name)
		if !present {
			return "", false, termmap.MissingColumn(name)
		}
		if ir.IsNull(v) {
			return "", false, nil
		}
		parts[i] = v.Text()
	}
	return ir.TupleKey(parts...), true, nil
}
