package testutil

import "github.com/roach88/tablegraph/internal/ir"

// FixedBlankGenerator derives blank node labels from a fixed prefix.
//
// Unlike termmap.UUIDGenerator, which prefixes labels with a fresh run ID,
// two runs with the same FixedBlankGenerator produce identical labels.
// This enables golden-file comparison of output containing blank nodes.
//
// Thread-safety: FixedBlankGenerator is stateless and safe for concurrent use.
type FixedBlankGenerator struct {
	prefix string
}

// NewFixedBlankGenerator creates a generator with the given prefix.
// If prefix is empty, labels start with "b".
func NewFixedBlankGenerator(prefix string) *FixedBlankGenerator {
	if prefix == "" {
		prefix = "b"
	}
	return &FixedBlankGenerator{prefix: prefix}
}

// Label implements termmap.BlankGenerator.
func (g *FixedBlankGenerator) Label(scope, key string) string {
	return g.prefix + ir.BlankLabel(scope, key)
}
