package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/source"
	"github.com/roach88/tablegraph/internal/termmap"
	"github.com/roach88/tablegraph/internal/testutil"
)

const ex = "http://ex.org/"

func iri(local string) rdf.IRI { return rdf.NewIRI(ex + local) }

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestResolver creates a resolver with deterministic blank labels and
// a silent logger.
func newTestResolver(t *testing.T, ds source.DataSource, opts ...Option) *Resolver {
	t.Helper()
	base := []Option{
		WithBlankGenerator(testutil.NewFixedBlankGenerator("")),
		WithLogger(quietLogger()),
	}
	r, err := New(ds, append(base, opts...)...)
	require.NoError(t, err)
	return r
}

// personDeptSpec maps person rows to people with a name and a department
// reference, and dept rows to departments with a label.
func personDeptSpec() *mapping.Spec {
	person := must(mapping.NewEntityMap("Person", mapping.MustTable("person"),
		must(mapping.NewSubjectMap(termmap.MustTemplate(ex+"person/{id}", termmap.IRI), iri("Person"))),
		mapping.Pair(mapping.Predicate(ex+"name"),
			must(mapping.NewObjectMap(termmap.Column{Name: "name", Type: termmap.Literal}))),
		mapping.Pair(mapping.Predicate(ex+"dept"),
			must(mapping.NewReferencingObjectMap("Dept", mapping.JoinCondition{Child: "dept_id", Parent: "id"}))),
	))
	dept := must(mapping.NewEntityMap("Dept", mapping.MustTable("dept"),
		must(mapping.NewSubjectMap(termmap.MustTemplate(ex+"dept/{id}", termmap.IRI), iri("Dept"))),
		mapping.Pair(mapping.Predicate(ex+"label"),
			must(mapping.NewObjectMap(termmap.Column{Name: "label", Type: termmap.Literal}))),
	))
	return must(mapping.NewSpec(person, dept))
}

func personDeptSource() *source.Memory {
	m := source.NewMemory()
	m.AddTable("person", testutil.Rows([]string{"id", "name", "dept_id"},
		[]any{"1", "Ann", "10"},
		[]any{"2", "Bob", "20"},
		[]any{"3", nil, "10"},
		[]any{"4", "Dan", nil},
	))
	m.AddTable("dept", testutil.Rows([]string{"id", "label"},
		[]any{"10", "Sales"},
		[]any{"20", "Ops"},
	))
	return m
}

func personDeptTriples() []rdf.Triple {
	p := func(id string) rdf.IRI { return iri("person/" + id) }
	d := func(id string) rdf.IRI { return iri("dept/" + id) }
	return []rdf.Triple{
		{S: p("1"), P: rdf.RDFType, O: iri("Person")},
		{S: p("1"), P: iri("name"), O: rdf.NewLiteral("Ann")},
		{S: p("1"), P: iri("dept"), O: d("10")},
		{S: p("2"), P: rdf.RDFType, O: iri("Person")},
		{S: p("2"), P: iri("name"), O: rdf.NewLiteral("Bob")},
		{S: p("2"), P: iri("dept"), O: d("20")},
		{S: p("3"), P: rdf.RDFType, O: iri("Person")},
		{S: p("3"), P: iri("dept"), O: d("10")},
		{S: p("4"), P: rdf.RDFType, O: iri("Person")},
		{S: p("4"), P: iri("name"), O: rdf.NewLiteral("Dan")},
		{S: d("10"), P: rdf.RDFType, O: iri("Dept")},
		{S: d("10"), P: iri("label"), O: rdf.NewLiteral("Sales")},
		{S: d("20"), P: rdf.RDFType, O: iri("Dept")},
		{S: d("20"), P: iri("label"), O: rdf.NewLiteral("Ops")},
	}
}

// collector is an Emitter recording batches.
type collector struct {
	batches [][]rdf.Triple
	rows    []int
}

func (c *collector) emit(row int, triples []rdf.Triple) error {
	c.rows = append(c.rows, row)
	c.batches = append(c.batches, triples)
	return nil
}

func (c *collector) triples() []rdf.Triple {
	var out []rdf.Triple
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}
