package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/termmap"
)

func TestNewSubjectMap_LiteralColumn(t *testing.T) {
	_, err := NewSubjectMap(termmap.Column{Name: "name", Type: termmap.Literal})
	require.Error(t, err)
	assert.True(t, IsInvalidSubjectType(err))
}

func TestNewSubjectMap_LiteralConstant(t *testing.T) {
	_, err := NewSubjectMap(termmap.Constant{Term: rdf.NewLiteral("x")})
	assert.True(t, IsInvalidSubjectType(err))
}

func TestNewSubjectMap_Valid(t *testing.T) {
	person := rdf.NewIRI("http://ex.org/Person")
	agent := rdf.NewIRI("http://ex.org/Agent")

	s, err := NewSubjectMap(termmap.MustTemplate("http://ex.org/person/{id}", termmap.IRI), person, agent)
	require.NoError(t, err)
	assert.Equal(t, []rdf.IRI{person, agent}, s.Classes())

	classes := s.Classes()
	classes[0] = rdf.NewIRI("mutated")
	assert.Equal(t, person, s.Classes()[0], "classes are copied")

	_, err = NewSubjectMap(termmap.Column{Name: "id", Type: termmap.Blank})
	assert.NoError(t, err)
}

func TestNewSubjectMap_Errors(t *testing.T) {
	_, err := NewSubjectMap(termmap.Column{Name: "id"})
	assert.True(t, hasCode(err, ErrCodeUndefinedTermType))

	_, err = NewSubjectMap(nil)
	assert.True(t, hasCode(err, ErrCodeUndefinedTermType))

	_, err = NewSubjectMap(termmap.Template{Pattern: "{id", Type: termmap.IRI})
	assert.True(t, termmap.IsInvalidTemplate(err))

	_, err = NewSubjectMap(termmap.Column{Name: "id", Type: termmap.IRI}, rdf.IRI{})
	assert.Error(t, err)
}

func TestNewPredicateMap(t *testing.T) {
	_, err := NewPredicateMap(termmap.MustTemplate("http://ex.org/{p}", termmap.IRI))
	assert.NoError(t, err)

	_, err = NewPredicateMap(termmap.Column{Name: "p", Type: termmap.Literal})
	assert.True(t, IsInvalidPredicateType(err))

	_, err = NewPredicateMap(termmap.Constant{Term: rdf.BlankNode{ID: "x"}})
	assert.True(t, IsInvalidPredicateType(err))

	_, err = NewPredicateMap(termmap.Column{Name: "p"})
	assert.True(t, hasCode(err, ErrCodeUndefinedTermType))

	p := Predicate("http://ex.org/name")
	assert.Equal(t, termmap.Constant{Term: rdf.NewIRI("http://ex.org/name")}, p.Definition())
}

func TestObjectMaps(t *testing.T) {
	o, err := NewObjectMap(termmap.Column{Name: "name", Type: termmap.Literal})
	require.NoError(t, err)
	assert.False(t, o.IsReferencing())

	_, err = NewObjectMap(termmap.Column{Name: "name"})
	assert.True(t, hasCode(err, ErrCodeUndefinedTermType))

	ref, err := NewReferencingObjectMap("Dept", JoinCondition{Child: "dept_id", Parent: "id"})
	require.NoError(t, err)
	assert.True(t, ref.IsReferencing())
	assert.Equal(t, "Dept", ref.Parent())
	assert.Nil(t, ref.Definition())
	assert.Equal(t, []JoinCondition{{Child: "dept_id", Parent: "id"}}, ref.Conditions())

	same, err := NewReferencingObjectMap("Dept")
	require.NoError(t, err)
	assert.Empty(t, same.Conditions())

	_, err = NewReferencingObjectMap("")
	assert.True(t, IsUnknownParent(err))

	_, err = NewReferencingObjectMap("Dept", JoinCondition{Parent: "id"})
	assert.True(t, IsInvalidJoin(err))
}

func TestNewEntityMap(t *testing.T) {
	subject, err := NewSubjectMap(termmap.MustTemplate("http://ex.org/person/{id}", termmap.IRI))
	require.NoError(t, err)
	name, err := NewObjectMap(termmap.Column{Name: "name", Type: termmap.Literal})
	require.NoError(t, err)

	pairs := []PredicateObjectPair{Pair(Predicate("http://ex.org/name"), name)}
	em, err := NewEntityMap("Person", MustTable("person"), subject, pairs...)
	require.NoError(t, err)

	assert.Equal(t, "Person", em.ID())
	assert.Equal(t, "table person", em.Source().String())
	assert.Equal(t, 1, em.NumPairs())
	assert.Equal(t, pairs[0], em.Pair(0))

	pairs[0] = PredicateObjectPair{}
	assert.NotEqual(t, PredicateObjectPair{}, em.Pair(0), "pairs are copied")
}

func TestNewEntityMap_Errors(t *testing.T) {
	subject, err := NewSubjectMap(termmap.Column{Name: "id", Type: termmap.IRI})
	require.NoError(t, err)

	_, err = NewEntityMap("", MustTable("t"), subject)
	assert.Error(t, err)

	_, err = NewEntityMap("A", nil, subject)
	assert.True(t, hasCode(err, ErrCodeInvalidSource))

	_, err = NewEntityMap("A", MustTable("t"), SubjectMap{})
	assert.True(t, hasCode(err, ErrCodeUndefinedTermType))

	_, err = NewEntityMap("A", MustTable("t"), subject, PredicateObjectPair{Predicate: Predicate("p")})
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "A", e.EntityMap)
	assert.Contains(t, err.Error(), "entity_map=A")
}
