package rdf

import "fmt"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// KindIRI represents an IRI term.
	KindIRI TermKind = iota + 1
	// KindBlank represents a blank node term.
	KindBlank
	// KindLiteral represents a literal term.
	KindLiteral
)

// String returns the lowercase kind name.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// Term is a sealed interface for values that can appear in a triple.
// Only IRI, BlankNode and Literal implement it.
type Term interface {
	Kind() TermKind
	String() string
	term()
}

// IRI is an RDF IRI.
type IRI struct {
	Value string
}

func (IRI) term() {}

// Kind returns KindIRI.
func (IRI) Kind() TermKind { return KindIRI }

// String returns the IRI in angle brackets.
func (i IRI) String() string { return "<" + i.Value + ">" }

// BlankNode is an RDF blank node with a document-scoped label.
type BlankNode struct {
	ID string
}

func (BlankNode) term() {}

// Kind returns KindBlank.
func (BlankNode) Kind() TermKind { return KindBlank }

// String returns the label prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal is an RDF literal. At most one of Datatype and Lang is set;
// a literal with neither is a plain xsd:string literal.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

func (Literal) term() {}

// Kind returns KindLiteral.
func (Literal) Kind() TermKind { return KindLiteral }

// String returns a Turtle-like rendering of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// NewIRI returns an IRI term.
func NewIRI(value string) IRI {
	return IRI{Value: value}
}

// NewLiteral returns a plain string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewTypedLiteral returns a literal with a datatype IRI. xsd:string is
// folded into the plain literal so both spellings are the same term.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	if datatype == XSDString {
		return NewLiteral(lexical)
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang}
}
