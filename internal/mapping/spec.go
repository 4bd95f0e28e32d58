package mapping

import (
	"fmt"
)

// Reference is a referencing object map resolved against its Spec.
type Reference struct {
	// Pair is the index of the predicate-object pair within its entity map.
	Pair int

	// Parent is the referenced entity map.
	Parent *EntityMap

	// Conditions are the pair's join conditions, in declaration order.
	Conditions []JoinCondition

	// Joined is the child ⋈ parent source, or nil when there are no
	// conditions and the parent subject is evaluated on the child row.
	Joined *Source
}

// Spec is a complete, validated mapping: an ordered set of entity maps
// with every parent reference resolved.
type Spec struct {
	maps []*EntityMap
	byID map[string]*EntityMap
	refs map[string]map[int]Reference
}

// NewSpec validates referential integrity and precomputes the joined
// source of every referencing object map.
//
// Fails with DUPLICATE_ENTITY_MAP when IDs collide and UNKNOWN_PARENT
// when a referencing object map names a missing entity map.
func NewSpec(maps ...*EntityMap) (*Spec, error) {
	s := &Spec{
		maps: make([]*EntityMap, 0, len(maps)),
		byID: make(map[string]*EntityMap, len(maps)),
		refs: make(map[string]map[int]Reference),
	}
	for i, m := range maps {
		if m == nil {
			return nil, fmt.Errorf("entity map %d is nil", i)
		}
		if _, dup := s.byID[m.id]; dup {
			return nil, &Error{Code: ErrCodeDuplicateEntityMap, EntityMap: m.id, Message: "entity map ID declared twice"}
		}
		s.byID[m.id] = m
		s.maps = append(s.maps, m)
	}

	for _, m := range s.maps {
		for i, p := range m.pairs {
			if !p.Object.IsReferencing() {
				continue
			}
			parent, ok := s.byID[p.Object.parent]
			if !ok {
				return nil, &Error{
					Code:      ErrCodeUnknownParent,
					EntityMap: m.id,
					Message:   fmt.Sprintf("pair %d references unknown entity map %q", i, p.Object.parent),
				}
			}
			ref := Reference{Pair: i, Parent: parent, Conditions: p.Object.Conditions()}
			if len(ref.Conditions) > 0 {
				joined, err := BuildJoinedSource(m.source, parent.source, ref.Conditions)
				if err != nil {
					return nil, withEntityMap(err, m.id)
				}
				ref.Joined = joined
			}
			if s.refs[m.id] == nil {
				s.refs[m.id] = make(map[int]Reference)
			}
			s.refs[m.id][i] = ref
		}
	}
	return s, nil
}

// EntityMaps returns the entity maps in declaration order.
func (s *Spec) EntityMaps() []*EntityMap {
	return append([]*EntityMap(nil), s.maps...)
}

// Len returns the number of entity maps.
func (s *Spec) Len() int { return len(s.maps) }

// Lookup returns the entity map with the given ID.
func (s *Spec) Lookup(id string) (*EntityMap, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Reference returns the resolved reference for pair i of entity map id.
// ok is false when the pair is not a referencing object map.
func (s *Spec) Reference(id string, pair int) (Reference, bool) {
	ref, ok := s.refs[id][pair]
	return ref, ok
}

// References returns every resolved reference of entity map id, ordered
// by pair index.
func (s *Spec) References(id string) []Reference {
	m, ok := s.byID[id]
	if !ok {
		return nil
	}
	var out []Reference
	for i := range m.pairs {
		if ref, ok := s.refs[id][i]; ok {
			out = append(out, ref)
		}
	}
	return out
}
