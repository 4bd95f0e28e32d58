package termmap

import (
	"fmt"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/rdf"
)

// Definition is a sealed interface for term definitions.
// Only Constant, Template and Column implement it.
type Definition interface {
	definition() // Sealed

	// Key returns a canonical identity for the definition. Structurally
	// equal definitions have equal keys.
	Key() string

	// Columns returns the column names the definition reads.
	Columns() []string
}

// Constant always yields Term, ignoring the record.
type Constant struct {
	Term rdf.Term
}

func (Constant) definition() {}

// Key implements Definition.
func (c Constant) Key() string {
	term := ""
	if c.Term != nil {
		term = c.Term.String()
	}
	return definitionKey(map[string]any{"constant": term})
}

// Columns implements Definition. Constants read no columns.
func (Constant) Columns() []string { return nil }

// Template builds a term by substituting column values into a pattern.
// Datatype and Lang apply only when Type is Literal.
type Template struct {
	Pattern  string
	Type     TermType
	Datatype rdf.IRI
	Lang     string

	parsed *Pattern
}

func (Template) definition() {}

// NewTemplate parses pattern and returns a Template that reuses the
// parsed form on every resolution.
func NewTemplate(pattern string, typ TermType) (Template, error) {
	p, err := ParseTemplate(pattern)
	if err != nil {
		return Template{}, err
	}
	return Template{Pattern: pattern, Type: typ, parsed: &p}, nil
}

// MustTemplate is like NewTemplate but panics on error.
func MustTemplate(pattern string, typ TermType) Template {
	t, err := NewTemplate(pattern, typ)
	if err != nil {
		panic(err)
	}
	return t
}

// WithDatatype returns a copy of t producing typed literals.
func (t Template) WithDatatype(dt rdf.IRI) Template {
	t.Datatype = dt
	return t
}

// WithLang returns a copy of t producing language-tagged literals.
func (t Template) WithLang(lang string) Template {
	t.Lang = lang
	return t
}

// Parse returns the parsed pattern.
func (t Template) Parse() (Pattern, error) {
	if t.parsed != nil && t.parsed.source == t.Pattern {
		return *t.parsed, nil
	}
	return ParseTemplate(t.Pattern)
}

// Key implements Definition.
func (t Template) Key() string {
	return definitionKey(map[string]any{
		"template": t.Pattern,
		"type":     t.Type.String(),
		"datatype": t.Datatype.Value,
		"lang":     t.Lang,
	})
}

// Columns implements Definition. Returns nil for malformed patterns.
func (t Template) Columns() []string {
	p, err := t.Parse()
	if err != nil {
		return nil
	}
	return p.Columns()
}

// Column takes a term verbatim from one column.
// Datatype and Lang apply only when Type is Literal.
type Column struct {
	Name     string
	Type     TermType
	Datatype rdf.IRI
	Lang     string
}

func (Column) definition() {}

// Key implements Definition.
func (c Column) Key() string {
	return definitionKey(map[string]any{
		"column":   c.Name,
		"type":     c.Type.String(),
		"datatype": c.Datatype.Value,
		"lang":     c.Lang,
	})
}

// Columns implements Definition.
func (c Column) Columns() []string { return []string{c.Name} }

// TypeOf returns the term type a definition produces. For a Constant the
// type is implied by the wrapped term.
func TypeOf(def Definition) TermType {
	switch d := def.(type) {
	case Constant:
		return typeOfTerm(d.Term)
	case *Constant:
		return typeOfTerm(d.Term)
	case Template:
		return d.Type
	case *Template:
		return d.Type
	case Column:
		return d.Type
	case *Column:
		return d.Type
	default:
		return Undefined
	}
}

func typeOfTerm(t rdf.Term) TermType {
	if t == nil {
		return Undefined
	}
	switch t.Kind() {
	case rdf.KindIRI:
		return IRI
	case rdf.KindBlank:
		return Blank
	case rdf.KindLiteral:
		return Literal
	default:
		return Undefined
	}
}

func definitionKey(m map[string]any) string {
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		// Only strings reach here.
		panic(fmt.Sprintf("definition key: %v", err))
	}
	return string(data)
}
