package ir

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Column is a named value used to build a Record.
type Column struct {
	Name  string
	Value Value
}

// C is a shorthand for Column for ergonomic construction.
// Example: MustRecord(C("id", Int(7)), C("name", String("Ann")))
func C(name string, v Value) Column {
	return Column{Name: name, Value: v}
}

// Record is one row of relational data: an ordered mapping from column
// name to value. Column names are unique within a record.
//
// Records are immutable once built. The zero Record is an empty row.
type Record struct {
	names  []string
	values map[string]Value
}

// NewRecord builds a Record preserving column order.
// Returns an error on an empty or duplicate column name.
// A nil Value is stored as Null.
func NewRecord(cols ...Column) (Record, error) {
	r := Record{
		names:  make([]string, 0, len(cols)),
		values: make(map[string]Value, len(cols)),
	}
	for i, c := range cols {
		if c.Name == "" {
			return Record{}, fmt.Errorf("column %d: empty column name", i)
		}
		if _, dup := r.values[c.Name]; dup {
			return Record{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		v := c.Value
		if v == nil {
			v = Null{}
		}
		r.names = append(r.names, c.Name)
		r.values[c.Name] = v
	}
	return r, nil
}

// MustRecord is like NewRecord but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecord(cols ...Column) Record {
	r, err := NewRecord(cols...)
	if err != nil {
		panic(err)
	}
	return r
}

// RecordFromMap builds a Record from a map. Columns are ordered by
// canonical key order since maps carry no order of their own.
func RecordFromMap(m map[string]Value) Record {
	cols := make([]Column, 0, len(m))
	for _, k := range sortedKeys(m) {
		cols = append(cols, C(k, m[k]))
	}
	return MustRecord(cols...)
}

// Lookup returns the value of a column and whether the column exists.
// A present Null column returns (Null{}, true).
func (r Record) Lookup(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether the record contains a column.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Columns returns the column names in row order.
// The returned slice is a copy.
func (r Record) Columns() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.names)
}

// Key returns a string identity for the record. Two records with the
// same columns and values have the same key regardless of column order.
// Names and values compare byte for byte; no normalization is applied.
func (r Record) Key() string {
	names := slices.Sorted(maps.Keys(r.values))
	parts := make([]string, 0, 2*len(names))
	for _, n := range names {
		parts = append(parts, n, valueTag(r.values[n]))
	}
	return TupleKey(parts...)
}

// valueTag renders v with its kind so Int(7) and String("7") differ.
func valueTag(v Value) string {
	switch v.(type) {
	case Null:
		return "n"
	case Int:
		return "i" + v.Text()
	case Bool:
		return "b" + v.Text()
	default:
		return "s" + v.Text()
	}
}

// TupleKey encodes parts as one string, each part prefixed by its byte
// length, so distinct tuples never share a key.
func TupleKey(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(strconv.Itoa(len(p)))
		sb.WriteByte(':')
		sb.WriteString(p)
	}
	return sb.String()
}

// String renders the record for logs and error messages.
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(n)
		sb.WriteString(": ")
		if IsNull(r.values[n]) {
			sb.WriteString("null")
		} else {
			fmt.Fprintf(&sb, "%q", r.values[n].Text())
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
