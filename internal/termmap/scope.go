package termmap

import (
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/rdf"
)

// BlankGenerator derives blank node labels.
// Implemented by UUIDGenerator (production) and testutil.FixedBlankGenerator (tests).
//
// Label must be a pure function of its arguments for the lifetime of the
// generator so concurrent workers agree on labels.
type BlankGenerator interface {
	Label(scope, key string) string
}

// UUIDGenerator prefixes blank node labels with a per-run UUIDv7 so labels
// from separate runs never collide.
//
// Thread-safety: UUIDGenerator is immutable and safe for concurrent use.
type UUIDGenerator struct {
	runID  uuid.UUID
	prefix string
}

// NewUUIDGenerator creates a generator with a fresh run ID.
//
// Panics if UUID generation fails (should never happen in practice).
func NewUUIDGenerator() *UUIDGenerator {
	id := uuid.Must(uuid.NewV7())
	// The trailing bytes of a v7 UUID are random; the leading ones are a
	// millisecond timestamp shared by runs started together.
	return &UUIDGenerator{
		runID:  id,
		prefix: "r" + hex.EncodeToString(id[10:]) + "x",
	}
}

// RunID returns the run's UUID in canonical hyphenated form.
func (g *UUIDGenerator) RunID() string {
	return g.runID.String()
}

// Label implements BlankGenerator.
func (g *UUIDGenerator) Label(scope, key string) string {
	return g.prefix + ir.BlankLabel(scope, key)
}

// Scope allocates blank nodes for one row.
//
// Repeated requests for the same definition within a scope return the
// same node. Scopes are not safe for concurrent use; each worker builds
// its own per row.
type Scope struct {
	gen   BlankGenerator
	key   string
	nodes map[string]rdf.BlankNode
}

// NewScope creates a scope identified by key (typically the entity map ID
// and the row's canonical key).
func NewScope(gen BlankGenerator, key string) *Scope {
	return &Scope{
		gen:   gen,
		key:   key,
		nodes: make(map[string]rdf.BlankNode),
	}
}

// Key returns the scope key.
func (s *Scope) Key() string {
	return s.key
}

// Blank returns the row-scoped blank node for a definition key.
func (s *Scope) Blank(defKey string) rdf.BlankNode {
	if n, ok := s.nodes[defKey]; ok {
		return n
	}
	n := rdf.BlankNode{ID: s.gen.Label(s.key, defKey)}
	s.nodes[defKey] = n
	return n
}

// Named returns the blank node labelled by a template value. Unlike Blank
// it is not row-scoped: equal values in different rows share a node.
func (s *Scope) Named(value string) rdf.BlankNode {
	return rdf.BlankNode{ID: s.gen.Label("", value)}
}
