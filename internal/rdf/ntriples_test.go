package rdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNTriples(t *testing.T) {
	s := NewIRI("http://ex.org/person/7")
	ts := []Triple{
		{S: s, P: RDFType, O: NewIRI("http://ex.org/Person")},
		{S: s, P: NewIRI("http://ex.org/name"), O: NewLangLiteral("Ann", "en")},
		{S: s, P: NewIRI("http://ex.org/age"), O: NewTypedLiteral("42", XSDInteger)},
		{S: BlankNode{ID: "b1"}, P: NewIRI("http://ex.org/note"), O: NewLiteral("a \"quoted\"\nline\\")},
	}

	want := `<http://ex.org/person/7> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex.org/Person> .
<http://ex.org/person/7> <http://ex.org/name> "Ann"@en .
<http://ex.org/person/7> <http://ex.org/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:b1 <http://ex.org/note> "a \"quoted\"\nline\\" .
`
	assert.Equal(t, want, EncodeNTriples(ts))
}

func TestEncodeNTriples_EscapesIRI(t *testing.T) {
	tr := Triple{S: NewIRI("http://ex.org/a b"), P: NewIRI("http://ex.org/p"), O: NewIRI("http://ex.org/<x>")}
	assert.Equal(t, `<http://ex.org/a\u0020b> <http://ex.org/p> <http://ex.org/\u003Cx\u003E> .`, Line(tr))
}

func TestLine(t *testing.T) {
	tr := Triple{S: NewIRI("http://ex.org/a"), P: NewIRI("http://ex.org/p"), O: NewLiteral("café")}
	assert.Equal(t, "<http://ex.org/a> <http://ex.org/p> \"café\" .", Line(tr))

	str := Triple{S: NewIRI("http://ex.org/a"), P: NewIRI("http://ex.org/p"), O: NewTypedLiteral("x", XSDString)}
	assert.Equal(t, `<http://ex.org/a> <http://ex.org/p> "x" .`, Line(str))
}

func TestNTriplesWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewNTriplesWriter(&buf)

	tr := Triple{S: NewIRI("http://ex.org/a"), P: RDFType, O: NewIRI("http://ex.org/C")}
	require.NoError(t, w.Write(tr))
	require.NoError(t, w.Write(tr))
	assert.Empty(t, buf.String(), "output buffered until Flush")

	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Count())
	assert.Equal(t, Line(tr)+"\n"+Line(tr)+"\n", buf.String())
}

func TestNTriplesWriter_RejectsIncomplete(t *testing.T) {
	w := NewNTriplesWriter(&bytes.Buffer{})
	assert.Error(t, w.Write(Triple{P: RDFType}))
	assert.Equal(t, 0, w.Count())
}
