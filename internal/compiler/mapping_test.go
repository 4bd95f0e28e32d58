package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/queryir"
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/termmap"
)

const personDept = `
mapping: Person: {
	logicalTable: tableName: "person"
	subjectMap: {
		template: "http://ex.org/person/{id}"
		class: ["http://ex.org/Person"]
	}
	predicateObjectMap: [{
		predicate: "http://ex.org/name"
		objectMap: {column: "name", language: "en"}
	}, {
		predicate: "http://ex.org/dept"
		objectMap: {
			parentTriplesMap: "Dept"
			joinCondition: [{child: "dept_id", parent: "id"}]
		}
	}]
}
mapping: Dept: {
	logicalTable: tableName: "dept"
	subjectMap: {template: "http://ex.org/dept/{id}", class: "http://ex.org/Dept"}
}
`

func TestCompileString_PersonDept(t *testing.T) {
	spec, err := CompileString("person.cue", personDept)
	require.NoError(t, err)

	require.Equal(t, 2, spec.Len())
	maps := spec.EntityMaps()
	assert.Equal(t, "Person", maps[0].ID(), "declaration order is kept")
	assert.Equal(t, "Dept", maps[1].ID())

	person := maps[0]
	assert.Equal(t, queryir.Table{Name: "person"}, person.Source().Query())
	assert.Equal(t, termmap.MustTemplate("http://ex.org/person/{id}", termmap.IRI), person.Subject().Definition())
	assert.Equal(t, []rdf.IRI{rdf.NewIRI("http://ex.org/Person")}, person.Subject().Classes())

	require.Equal(t, 2, person.NumPairs())
	name := person.Pair(0)
	assert.Equal(t, termmap.Constant{Term: rdf.NewIRI("http://ex.org/name")}, name.Predicate.Definition())
	assert.Equal(t, termmap.Column{Name: "name", Type: termmap.Literal, Lang: "en"}, name.Object.Definition())

	dept := person.Pair(1)
	require.True(t, dept.Object.IsReferencing())
	assert.Equal(t, "Dept", dept.Object.Parent())
	assert.Equal(t, []mapping.JoinCondition{{Child: "dept_id", Parent: "id"}}, dept.Object.Conditions())

	ref, ok := spec.Reference("Person", 1)
	require.True(t, ok)
	require.NotNil(t, ref.Joined)
	assert.Equal(t, mapping.SourceJoined, ref.Joined.Kind())

	assert.Equal(t, []rdf.IRI{rdf.NewIRI("http://ex.org/Dept")}, maps[1].Subject().Classes(), "single class string")
}

func TestCompileMapping_DefaultTermTypes(t *testing.T) {
	spec, err := CompileString("defaults.cue", `
mapping: T: {
	logicalTable: tableName: "t"
	subjectMap: column: "iri"
	predicateObjectMap: [
		{predicate: "http://ex.org/a", objectMap: column: "a"},
		{predicate: "http://ex.org/b", objectMap: template: "http://ex.org/b/{b}"},
		{predicate: "http://ex.org/c", objectMap: {template: "{c}", datatype: "http://www.w3.org/2001/XMLSchema#integer"}},
		{predicate: "http://ex.org/d", objectMap: constant: "http://ex.org/D"},
		{predicate: "http://ex.org/e", objectMap: {constant: "hello", termType: "literal"}},
		{predicate: "http://ex.org/f", objectMap: {column: "f", termType: "iri"}},
		{predicate: "http://ex.org/g", objectMap: {template: "g{g}", termType: "blank"}},
		{predicateMap: {template: "http://ex.org/p/{p}"}, object: "http://ex.org/O"},
	]
}`)
	require.NoError(t, err)
	em := spec.EntityMaps()[0]

	assert.Equal(t, termmap.Column{Name: "iri", Type: termmap.IRI}, em.Subject().Definition())

	objects := make([]termmap.Definition, em.NumPairs())
	for i := range objects {
		objects[i] = em.Pair(i).Object.Definition()
	}
	assert.Equal(t, termmap.Column{Name: "a", Type: termmap.Literal}, objects[0])
	assert.Equal(t, termmap.MustTemplate("http://ex.org/b/{b}", termmap.IRI), objects[1])
	assert.Equal(t, termmap.MustTemplate("{c}", termmap.Literal).WithDatatype(rdf.XSDInteger), objects[2])
	assert.Equal(t, termmap.Constant{Term: rdf.NewIRI("http://ex.org/D")}, objects[3])
	assert.Equal(t, termmap.Constant{Term: rdf.NewLiteral("hello")}, objects[4])
	assert.Equal(t, termmap.Column{Name: "f", Type: termmap.IRI}, objects[5])
	assert.Equal(t, termmap.MustTemplate("g{g}", termmap.Blank), objects[6])
	assert.Equal(t, termmap.Constant{Term: rdf.NewIRI("http://ex.org/O")}, objects[7])

	assert.Equal(t, termmap.MustTemplate("http://ex.org/p/{p}", termmap.IRI), em.Pair(7).Predicate.Definition())
}

func TestCompileMapping_MultiplePredicatesAndObjects(t *testing.T) {
	spec, err := CompileString("multi.cue", `
mapping: T: {
	logicalTable: tableName: "t"
	subjectMap: template: "http://ex.org/{id}"
	predicateObjectMap: [{
		predicate: ["http://ex.org/p1", "http://ex.org/p2"]
		objectMap: [{column: "a"}, {column: "b"}]
	}]
}`)
	require.NoError(t, err)
	em := spec.EntityMaps()[0]

	require.Equal(t, 4, em.NumPairs())
	want := []struct{ p, o string }{
		{"http://ex.org/p1", "a"},
		{"http://ex.org/p1", "b"},
		{"http://ex.org/p2", "a"},
		{"http://ex.org/p2", "b"},
	}
	for i, w := range want {
		assert.Equal(t, termmap.Constant{Term: rdf.NewIRI(w.p)}, em.Pair(i).Predicate.Definition())
		assert.Equal(t, termmap.Column{Name: w.o, Type: termmap.Literal}, em.Pair(i).Object.Definition())
	}
}

func TestCompileMapping_View(t *testing.T) {
	spec, err := CompileString("view.cue", `
mapping: V: {
	logicalTable: {
		sqlQuery: "SELECT id FROM t WHERE active = 1"
		sqlVersion: "http://www.w3.org/ns/r2rml#SQL2008"
	}
	subject: "http://ex.org/only"
}`)
	require.NoError(t, err)
	em := spec.EntityMaps()[0]

	assert.Equal(t, mapping.SourceView, em.Source().Kind())
	assert.Equal(t, queryir.View{
		SQL:     "SELECT id FROM t WHERE active = 1",
		Version: "http://www.w3.org/ns/r2rml#SQL2008",
	}, em.Source().Query())
	assert.Equal(t, termmap.Constant{Term: rdf.NewIRI("http://ex.org/only")}, em.Subject().Definition())
}

func TestCompileMapping_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing logical table",
			src:   `mapping: A: subjectMap: template: "x/{id}"`,
			field: "logicalTable",
			msg:   "required",
		},
		{
			name:  "table and query",
			src:   `mapping: A: {logicalTable: {tableName: "a", sqlQuery: "SELECT 1"}, subjectMap: template: "x/{id}"}`,
			field: "logicalTable",
			msg:   "mutually exclusive",
		},
		{
			name:  "missing subject",
			src:   `mapping: A: logicalTable: tableName: "a"`,
			field: "subjectMap",
			msg:   "required",
		},
		{
			name:  "two term sources",
			src:   `mapping: A: {logicalTable: tableName: "a", subjectMap: {template: "x/{id}", column: "id"}}`,
			field: "subjectMap",
			msg:   "exactly one",
		},
		{
			name:  "unknown term type",
			src:   `mapping: A: {logicalTable: tableName: "a", subjectMap: {column: "id", termType: "number"}}`,
			field: "subjectMap.termType",
			msg:   "unknown term type",
		},
		{
			name:  "language on iri",
			src:   `mapping: A: {logicalTable: tableName: "a", subjectMap: {column: "id", language: "en"}}`,
			field: "subjectMap",
			msg:   "require termType literal",
		},
		{
			name: "missing predicate",
			src: `mapping: A: {
				logicalTable: tableName: "a"
				subjectMap: template: "x/{id}"
				predicateObjectMap: [{objectMap: column: "b"}]
			}`,
			field: "predicateObjectMap[0]",
			msg:   "predicate or predicateMap",
		},
		{
			name: "join condition without parent column",
			src: `mapping: A: {
				logicalTable: tableName: "a"
				subjectMap: template: "x/{id}"
				predicateObjectMap: [{predicate: "p", objectMap: {parentTriplesMap: "A", joinCondition: [{child: "id"}]}}]
			}`,
			field: "predicateObjectMap[0].objectMap.joinCondition[0].parent",
			msg:   "required",
		},
		{
			name:  "no entity maps",
			src:   `mapping: {}`,
			field: "mapping",
			msg:   "at least one",
		},
		{
			name:  "no mapping",
			src:   `other: 1`,
			field: "mapping",
			msg:   "required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString("bad.cue", tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompileMapping_LiteralSubject(t *testing.T) {
	_, err := CompileString("bad.cue", `
mapping: A: {
	logicalTable: tableName: "a"
	subjectMap: {column: "name", termType: "literal"}
}`)
	require.Error(t, err)
	assert.True(t, mapping.IsInvalidSubjectType(err), "mapping error stays reachable")
}

func TestCompileMapping_UnknownParent(t *testing.T) {
	_, err := CompileString("bad.cue", `
mapping: A: {
	logicalTable: tableName: "a"
	subjectMap: template: "x/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/p", objectMap: parentTriplesMap: "Missing"}]
}`)
	require.Error(t, err)
	assert.True(t, mapping.IsUnknownParent(err))
}

func TestCompileMapping_ErrorPosition(t *testing.T) {
	_, err := CompileString("pos.cue", `mapping: A: {
	logicalTable: {tableName: "a", sqlQuery: "SELECT 1"}
	subjectMap: template: "x/{id}"
}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, "pos.cue", ce.Pos.Filename())
	assert.Contains(t, err.Error(), "pos.cue:")
}

func TestCompileMapping_CUESyntaxError(t *testing.T) {
	_, err := CompileString("syntax.cue", `mapping: A: {`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
}

func TestCompileEntityMap_QuotedLabel(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`mapping: "person-map": {
		logicalTable: tableName: "person"
		subjectMap: template: "http://ex.org/{id}"
	}`)
	require.NoError(t, v.Err())

	em, err := CompileEntityMap(v.LookupPath(cue.MakePath(cue.Str("mapping"), cue.Str("person-map"))))
	require.NoError(t, err)
	assert.Equal(t, "person-map", em.ID())
}
