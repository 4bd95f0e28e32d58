package termmap

import (
	"fmt"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/queryir"
	"github.com/roach88/tablegraph/internal/rdf"
)

// Lookup returns a column's value and whether the column exists.
type Lookup func(name string) (ir.Value, bool)

// JoinedLookup reads columns from a correlated (child, parent) pair.
//
// A name equal to a condition's Parent column reads the parent record; a
// name equal to a condition's Child column reads the child record. Any
// other name reads the child record, falling back to the parent when the
// child lacks it.
func JoinedLookup(joins []queryir.ColumnEquals, child, parent ir.Record) Lookup {
	return func(name string) (ir.Value, bool) {
		for _, j := range joins {
			if j.Parent == name {
				return parent.Lookup(name)
			}
		}
		for _, j := range joins {
			if j.Child == name {
				return child.Lookup(name)
			}
		}
		if v, ok := child.Lookup(name); ok {
			return v, true
		}
		return parent.Lookup(name)
	}
}

// Resolve produces the term def yields for rec.
//
// Errors:
//   - MISSING_COLUMN when a referenced column is absent
//   - UNDEFINED_TERM_TYPE when a Template or Column has no type
//   - INVALID_TEMPLATE when a template pattern is malformed
//   - ErrNullValue when a referenced column is NULL
func Resolve(def Definition, rec ir.Record, scope *Scope) (rdf.Term, error) {
	return ResolveWith(def, rec.Lookup, scope)
}

// ResolveJoined is Resolve over a joined (child, parent) pair.
// See JoinedLookup for how each column reference is routed.
func ResolveJoined(def Definition, joins []queryir.ColumnEquals, child, parent ir.Record, scope *Scope) (rdf.Term, error) {
	return ResolveWith(def, JoinedLookup(joins, child, parent), scope)
}

// ResolveWith resolves def using an arbitrary column lookup.
func ResolveWith(def Definition, lookup Lookup, scope *Scope) (rdf.Term, error) {
	switch d := def.(type) {
	case Constant:
		return resolveConstant(d)
	case *Constant:
		return resolveConstant(*d)
	case Template:
		return resolveTemplate(d, lookup, scope)
	case *Template:
		return resolveTemplate(*d, lookup, scope)
	case Column:
		return resolveColumn(d, lookup, scope)
	case *Column:
		return resolveColumn(*d, lookup, scope)
	case nil:
		return nil, fmt.Errorf("nil term definition")
	default:
		return nil, fmt.Errorf("unsupported term definition: %T", def)
	}
}

func resolveConstant(c Constant) (rdf.Term, error) {
	if c.Term == nil {
		return nil, fmt.Errorf("constant has no term")
	}
	return c.Term, nil
}

func resolveTemplate(t Template, lookup Lookup, scope *Scope) (rdf.Term, error) {
	if t.Type == Undefined {
		return nil, undefinedTermType(t)
	}
	p, err := t.Parse()
	if err != nil {
		return nil, err
	}
	text, err := p.Expand(lookup)
	if err != nil {
		return nil, err
	}
	if t.Type == Blank {
		if scope == nil {
			return nil, fmt.Errorf("blank node requested without a scope")
		}
		return scope.Named(t.Key() + "\x00" + text), nil
	}
	return makeTerm(t.Type, text, t.Datatype, t.Lang)
}

func resolveColumn(c Column, lookup Lookup, scope *Scope) (rdf.Term, error) {
	if c.Type == Undefined {
		return nil, undefinedTermType(c)
	}
	v, ok := lookup(c.Name)
	if !ok {
		return nil, MissingColumn(c.Name)
	}
	// Blank ignores the value, NULL included; the column only has to exist.
	if c.Type == Blank {
		if scope == nil {
			return nil, fmt.Errorf("blank node requested without a scope")
		}
		return scope.Blank(c.Key()), nil
	}
	if isNull(v) {
		return nil, ErrNullValue
	}
	return makeTerm(c.Type, v.Text(), c.Datatype, c.Lang)
}

func makeTerm(typ TermType, text string, datatype rdf.IRI, lang string) (rdf.Term, error) {
	switch typ {
	case IRI:
		return rdf.NewIRI(text), nil
	case Literal:
		switch {
		case lang != "":
			return rdf.NewLangLiteral(text, lang), nil
		case datatype.Value != "":
			return rdf.NewTypedLiteral(text, datatype), nil
		default:
			return rdf.NewLiteral(text), nil
		}
	default:
		return nil, fmt.Errorf("cannot build %s term from text", typ)
	}
}

func isNull(v ir.Value) bool {
	return ir.IsNull(v)
}
