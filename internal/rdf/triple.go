package rdf

import (
	"slices"
	"strings"
)

// Triple is an RDF statement. Subject is an IRI or BlankNode; the
// predicate is always an IRI. Triples are comparable and usable as map keys.
type Triple struct {
	S Term
	P IRI
	O Term
}

// String renders the triple as one N-Triples line without the newline.
func (t Triple) String() string {
	var sb strings.Builder
	writeTriple(&sb, t)
	return sb.String()
}

// Line renders t as one N-Triples statement without the newline.
func Line(t Triple) string {
	return t.String()
}

// SortTriples orders triples by their N-Triples rendering.
// Used to produce deterministic output from concurrently resolved sets.
func SortTriples(ts []Triple) {
	lines := make(map[Triple]string, len(ts))
	for _, t := range ts {
		if _, ok := lines[t]; !ok {
			lines[t] = t.String()
		}
	}
	slices.SortStableFunc(ts, func(a, b Triple) int {
		return strings.Compare(lines[a], lines[b])
	})
}

// Dedup returns the distinct triples of ts in first-seen order.
func Dedup(ts []Triple) []Triple {
	seen := make(map[Triple]struct{}, len(ts))
	out := make([]Triple, 0, len(ts))
	for _, t := range ts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
