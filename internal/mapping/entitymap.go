package mapping

import (
	"fmt"
	"strings"
)

// EntityMap maps the rows of one source to triples: a subject per row,
// its class assertions, and one triple per predicate-object pair.
type EntityMap struct {
	id      string
	source  *Source
	subject SubjectMap
	pairs   []PredicateObjectPair
}

// NewEntityMap validates and assembles an entity map.
func NewEntityMap(id string, source *Source, subject SubjectMap, pairs ...PredicateObjectPair) (*EntityMap, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("entity map ID is empty")
	}
	if source == nil {
		return nil, &Error{Code: ErrCodeInvalidSource, EntityMap: id, Message: "entity map has no source"}
	}
	if subject.def == nil {
		return nil, &Error{Code: ErrCodeUndefinedTermType, EntityMap: id, Message: "entity map has no subject map"}
	}
	for i, p := range pairs {
		if p.Predicate.def == nil {
			return nil, &Error{Code: ErrCodeUndefinedTermType, EntityMap: id, Message: fmt.Sprintf("pair %d has no predicate map", i)}
		}
		if p.Object.def == nil && !p.Object.IsReferencing() {
			return nil, &Error{Code: ErrCodeUndefinedTermType, EntityMap: id, Message: fmt.Sprintf("pair %d has no object map", i)}
		}
	}
	return &EntityMap{
		id:      id,
		source:  source,
		subject: subject,
		pairs:   append([]PredicateObjectPair(nil), pairs...),
	}, nil
}

// ID returns the entity map's unique identifier.
func (m *EntityMap) ID() string { return m.id }

// Source returns the entity map's row source.
func (m *EntityMap) Source() *Source { return m.source }

// Subject returns the subject map.
func (m *EntityMap) Subject() SubjectMap { return m.subject }

// Pairs returns a copy of the predicate-object pairs in declaration order.
func (m *EntityMap) Pairs() []PredicateObjectPair {
	return append([]PredicateObjectPair(nil), m.pairs...)
}

// NumPairs returns the number of predicate-object pairs.
func (m *EntityMap) NumPairs() int { return len(m.pairs) }

// Pair returns the i-th predicate-object pair.
func (m *EntityMap) Pair(i int) PredicateObjectPair { return m.pairs[i] }
