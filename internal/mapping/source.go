package mapping

import (
	"fmt"
	"strings"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/queryir"
)

// JoinCondition correlates a child column with a parent column.
type JoinCondition = queryir.ColumnEquals

// SourceKind distinguishes entity source shapes.
type SourceKind uint8

const (
	// SourceTable is a base table.
	SourceTable SourceKind = iota + 1
	// SourceView is a SQL query.
	SourceView
	// SourceJoined is a child source joined with a parent source.
	SourceJoined
)

// String returns the lowercase kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceTable:
		return "table"
	case SourceView:
		return "view"
	case SourceJoined:
		return "joined"
	default:
		return fmt.Sprintf("SourceKind(%d)", uint8(k))
	}
}

// Source is an immutable entity source: where an entity map's rows come from.
//
// ID is derived from the canonical definition, so structurally equal
// sources have equal IDs and can share cached rows or indexes.
type Source struct {
	kind  SourceKind
	query queryir.Query
	id    string

	// Joined sources only.
	child  *Source
	parent *Source
	conds  []JoinCondition
}

// NewTable returns a base table source.
func NewTable(name string) (*Source, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newError(ErrCodeInvalidSource, "table name is empty")
	}
	return newSource(SourceTable, queryir.Table{Name: name})
}

// NewView returns a SQL query source. version is the optional R2RML
// rr:sqlVersion identifier.
func NewView(sql, version string) (*Source, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, newError(ErrCodeInvalidSource, "view query is empty")
	}
	return newSource(SourceView, queryir.View{SQL: sql, Version: version})
}

// MustTable is like NewTable but panics on error.
func MustTable(name string) *Source {
	s, err := NewTable(name)
	if err != nil {
		panic(err)
	}
	return s
}

// BuildJoinedSource composes child and parent into a source yielding, for
// every (child, parent) row pair satisfying all conditions, the child row.
// A child row matching several parent rows appears once per match.
//
// Conditions are folded in order into one conjunction. Their order changes
// the representation and ID but never the row set.
//
// Fails with INVALID_JOIN when conds is empty.
func BuildJoinedSource(child, parent *Source, conds []JoinCondition) (*Source, error) {
	if len(conds) == 0 {
		return nil, newError(ErrCodeInvalidJoin, "join requires at least one condition")
	}
	if child == nil || parent == nil {
		return nil, newError(ErrCodeInvalidJoin, "join requires both a child and a parent source")
	}
	preds := make([]queryir.Predicate, 0, len(conds))
	for i, c := range conds {
		if c.Child == "" || c.Parent == "" {
			return nil, newError(ErrCodeInvalidJoin, "condition %d has an empty column", i)
		}
		preds = append(preds, c)
	}

	s, err := newSource(SourceJoined, queryir.Join{
		Child:  child.query,
		Parent: parent.query,
		On:     queryir.Conjunction(preds...),
	})
	if err != nil {
		return nil, err
	}
	s.child = child
	s.parent = parent
	s.conds = append([]JoinCondition(nil), conds...)
	return s, nil
}

func newSource(kind SourceKind, q queryir.Query) (*Source, error) {
	def, err := queryir.Definition(q)
	if err != nil {
		return nil, fmt.Errorf("source definition: %w", err)
	}
	id, err := ir.SourceID(def)
	if err != nil {
		return nil, err
	}
	return &Source{kind: kind, query: q, id: id}, nil
}

// ID returns the source's content-addressed identity.
func (s *Source) ID() string { return s.id }

// Kind returns the source shape.
func (s *Source) Kind() SourceKind { return s.kind }

// Query returns the QueryIR form of the source.
func (s *Source) Query() queryir.Query { return s.query }

// Child returns the child side of a joined source, or nil.
func (s *Source) Child() *Source { return s.child }

// Parent returns the parent side of a joined source, or nil.
func (s *Source) Parent() *Source { return s.parent }

// Conditions returns a copy of a joined source's conditions.
func (s *Source) Conditions() []JoinCondition {
	return append([]JoinCondition(nil), s.conds...)
}

// String renders the source for logs.
func (s *Source) String() string {
	switch q := s.query.(type) {
	case queryir.Table:
		return "table " + q.Name
	case queryir.View:
		return "view " + shortID(s.id)
	default:
		return fmt.Sprintf("join(%s, %s) %s", s.child, s.parent, shortID(s.id))
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
