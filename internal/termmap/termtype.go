package termmap

import (
	"fmt"
	"strings"
)

// TermType constrains the kind of term a Template or Column produces.
type TermType uint8

const (
	// Undefined is the zero value; resolving a definition with it fails.
	Undefined TermType = iota
	// IRI produces rdf.IRI terms.
	IRI
	// Blank produces rdf.BlankNode terms.
	Blank
	// Literal produces rdf.Literal terms.
	Literal
)

// String returns the lowercase name used in mapping documents.
func (t TermType) String() string {
	switch t {
	case Undefined:
		return "undefined"
	case IRI:
		return "iri"
	case Blank:
		return "blank"
	case Literal:
		return "literal"
	default:
		return fmt.Sprintf("TermType(%d)", uint8(t))
	}
}

// ParseTermType accepts the short names (iri, blank, literal) and the
// R2RML vocabulary IRIs (rr:IRI, rr:BlankNode, rr:Literal).
func ParseTermType(s string) (TermType, error) {
	switch strings.TrimPrefix(strings.ToLower(s), "http://www.w3.org/ns/r2rml#") {
	case "iri", "rr:iri":
		return IRI, nil
	case "blank", "blanknode", "rr:blanknode":
		return Blank, nil
	case "literal", "rr:literal":
		return Literal, nil
	default:
		return Undefined, fmt.Errorf("unknown term type %q", s)
	}
}
