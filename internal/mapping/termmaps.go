package mapping

import (
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/termmap"
)

// SubjectMap produces the subject of every triple generated from a row.
// Its definition yields IRIs or blank nodes, never literals.
type SubjectMap struct {
	def     termmap.Definition
	classes []rdf.IRI
}

// NewSubjectMap validates def and attaches the subject's classes.
// Fails with INVALID_SUBJECT_TYPE for literal-producing definitions.
func NewSubjectMap(def termmap.Definition, classes ...rdf.IRI) (SubjectMap, error) {
	switch termmap.TypeOf(def) {
	case termmap.IRI, termmap.Blank:
	case termmap.Literal:
		return SubjectMap{}, newError(ErrCodeInvalidSubjectType, "subject map produces literals: %s", def.Key())
	default:
		return SubjectMap{}, undefinedType("subject", def)
	}
	if err := checkTemplate(def); err != nil {
		return SubjectMap{}, err
	}
	for _, c := range classes {
		if c.Value == "" {
			return SubjectMap{}, newError(ErrCodeInvalidSubjectType, "class IRI is empty")
		}
	}
	return SubjectMap{def: def, classes: append([]rdf.IRI(nil), classes...)}, nil
}

// Definition returns the subject's term definition.
func (s SubjectMap) Definition() termmap.Definition { return s.def }

// Classes returns a copy of the declared classes.
func (s SubjectMap) Classes() []rdf.IRI {
	return append([]rdf.IRI(nil), s.classes...)
}

// PredicateMap produces the predicate of a triple. Always IRI-valued.
type PredicateMap struct {
	def termmap.Definition
}

// NewPredicateMap validates def. Fails with INVALID_PREDICATE_TYPE unless
// def produces IRIs.
func NewPredicateMap(def termmap.Definition) (PredicateMap, error) {
	switch termmap.TypeOf(def) {
	case termmap.IRI:
	case termmap.Undefined:
		return PredicateMap{}, undefinedType("predicate", def)
	default:
		return PredicateMap{}, newError(ErrCodeInvalidPredicateType, "predicate map must produce IRIs: %s", def.Key())
	}
	if err := checkTemplate(def); err != nil {
		return PredicateMap{}, err
	}
	return PredicateMap{def: def}, nil
}

// Predicate is a shortcut for a constant IRI predicate map.
func Predicate(iri string) PredicateMap {
	return PredicateMap{def: termmap.Constant{Term: rdf.NewIRI(iri)}}
}

// Definition returns the predicate's term definition.
func (p PredicateMap) Definition() termmap.Definition { return p.def }

// ObjectMap produces the object of a triple: either from a term definition
// over the row, or from a parent entity map's subject (a referencing
// object map).
type ObjectMap struct {
	def termmap.Definition

	parent string
	conds  []JoinCondition
}

// NewObjectMap returns an object map over a term definition of any type.
func NewObjectMap(def termmap.Definition) (ObjectMap, error) {
	if termmap.TypeOf(def) == termmap.Undefined {
		return ObjectMap{}, undefinedType("object", def)
	}
	if err := checkTemplate(def); err != nil {
		return ObjectMap{}, err
	}
	return ObjectMap{def: def}, nil
}

// NewReferencingObjectMap returns an object map whose object is the
// subject of the parent entity map, for every parent row joining the
// current row under conds. With no conditions the parent's subject map
// is evaluated on the current row.
func NewReferencingObjectMap(parent string, conds ...JoinCondition) (ObjectMap, error) {
	if parent == "" {
		return ObjectMap{}, newError(ErrCodeUnknownParent, "referencing object map has no parent")
	}
	for i, c := range conds {
		if c.Child == "" || c.Parent == "" {
			return ObjectMap{}, newError(ErrCodeInvalidJoin, "condition %d has an empty column", i)
		}
	}
	return ObjectMap{parent: parent, conds: append([]JoinCondition(nil), conds...)}, nil
}

// Definition returns the object's term definition, or nil for a
// referencing object map.
func (o ObjectMap) Definition() termmap.Definition { return o.def }

// IsReferencing reports whether the object comes from a parent entity map.
func (o ObjectMap) IsReferencing() bool { return o.parent != "" }

// Parent returns the parent entity map ID of a referencing object map.
func (o ObjectMap) Parent() string { return o.parent }

// Conditions returns a copy of the join conditions.
func (o ObjectMap) Conditions() []JoinCondition {
	return append([]JoinCondition(nil), o.conds...)
}

// PredicateObjectPair generates one triple per row (or one per matching
// parent row for referencing object maps).
type PredicateObjectPair struct {
	Predicate PredicateMap
	Object    ObjectMap
}

// Pair is a shortcut for building a PredicateObjectPair.
func Pair(p PredicateMap, o ObjectMap) PredicateObjectPair {
	return PredicateObjectPair{Predicate: p, Object: o}
}

func undefinedType(role string, def termmap.Definition) error {
	if def == nil {
		return newError(ErrCodeUndefinedTermType, "%s map has no definition", role)
	}
	return newError(ErrCodeUndefinedTermType, "%s map has no term type: %s", role, def.Key())
}

// checkTemplate surfaces malformed template patterns at construction.
func checkTemplate(def termmap.Definition) error {
	switch d := def.(type) {
	case termmap.Template:
		_, err := d.Parse()
		return err
	case *termmap.Template:
		_, err := d.Parse()
		return err
	}
	return nil
}
