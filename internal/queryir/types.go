package queryir

import "fmt"

// Query represents an entity source in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Table: base table access
//   - View: a SQL query supplied by the mapping author
//   - Join: inner join of two queries projecting the child's columns
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a join condition in the QueryIR.
//
// Predicate types:
//   - ColumnEquals: child.column = parent.column
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Table represents access to every row of a base table.
//
// Semantics:
//
//	SELECT * FROM <name>
type Table struct {
	Name string
}

func (Table) queryNode() {}

// View represents a SQL query used as a logical table.
//
// Version carries the R2RML rr:sqlVersion identifier when one was given.
// The query text is backend-specific; views are outside the portable
// fragment and only the SQL backend executes them (the in-memory backend
// resolves them by exact text).
type View struct {
	SQL     string
	Version string
}

func (View) queryNode() {}

// Join represents an inner join of a child query with a parent query.
//
// Semantics:
//
//	SELECT child.* FROM <child> AS child
//	INNER JOIN <parent> AS parent ON <on>
//
// Every (child, parent) row pair satisfying On yields one result row equal
// to the child row. A child row matching several parent rows appears once
// per match; rows are never deduplicated.
//
// On is required. A Join without a predicate is a cross join and is
// rejected by Validate.
type Join struct {
	Child  Query
	Parent Query
	On     Predicate
}

func (Join) queryNode() {}

// ColumnEquals compares a child column with a parent column.
//
// Semantics:
//
//	child.<Child> = parent.<Parent>
//
// Values compare by lexical form. NULL never equals anything, including
// another NULL.
type ColumnEquals struct {
	Child  string
	Parent string
}

func (ColumnEquals) predicateNode() {}

// And represents a conjunction of predicates.
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjunction folds predicates into a single And, flattening nested Ands
// so the result does not depend on how the input was grouped.
func Conjunction(preds ...Predicate) And {
	out := And{Predicates: make([]Predicate, 0, len(preds))}
	for _, p := range preds {
		switch v := p.(type) {
		case And:
			out.Predicates = append(out.Predicates, Conjunction(v.Predicates...).Predicates...)
		case *And:
			out.Predicates = append(out.Predicates, Conjunction(v.Predicates...).Predicates...)
		case nil:
		default:
			out.Predicates = append(out.Predicates, p)
		}
	}
	return out
}

// Conditions returns the ColumnEquals leaves of p in order.
func Conditions(p Predicate) []ColumnEquals {
	var out []ColumnEquals
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch v := p.(type) {
		case ColumnEquals:
			out = append(out, v)
		case *ColumnEquals:
			out = append(out, *v)
		case And:
			for _, sub := range v.Predicates {
				walk(sub)
			}
		case *And:
			for _, sub := range v.Predicates {
				walk(sub)
			}
		}
	}
	walk(p)
	return out
}

// Definition renders q as a canonical definition map.
// The result contains only strings, slices and maps, so it can be passed
// to ir.MarshalCanonical.
func Definition(q Query) (map[string]any, error) {
	switch v := q.(type) {
	case Table:
		return map[string]any{"table": v.Name}, nil
	case *Table:
		return Definition(*v)
	case View:
		def := map[string]any{"sql": v.SQL}
		if v.Version != "" {
			def["sqlVersion"] = v.Version
		}
		return def, nil
	case *View:
		return Definition(*v)
	case Join:
		child, err := Definition(v.Child)
		if err != nil {
			return nil, fmt.Errorf("join child: %w", err)
		}
		parent, err := Definition(v.Parent)
		if err != nil {
			return nil, fmt.Errorf("join parent: %w", err)
		}
		on, err := predicateDefinition(v.On)
		if err != nil {
			return nil, fmt.Errorf("join on: %w", err)
		}
		return map[string]any{
			"join": map[string]any{
				"child":  child,
				"parent": parent,
				"on":     on,
			},
		}, nil
	case *Join:
		return Definition(*v)
	case nil:
		return nil, fmt.Errorf("nil query")
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func predicateDefinition(p Predicate) (any, error) {
	switch v := p.(type) {
	case ColumnEquals:
		return map[string]any{"child": v.Child, "parent": v.Parent}, nil
	case *ColumnEquals:
		return predicateDefinition(*v)
	case And:
		parts := make([]any, 0, len(v.Predicates))
		for i, sub := range v.Predicates {
			d, err := predicateDefinition(sub)
			if err != nil {
				return nil, fmt.Errorf("and[%d]: %w", i, err)
			}
			parts = append(parts, d)
		}
		return map[string]any{"and": parts}, nil
	case *And:
		return predicateDefinition(*v)
	case nil:
		return nil, fmt.Errorf("nil predicate")
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
