package rdf

// Namespaces used by generated triples.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

// Well-known IRIs.
var (
	RDFType     = IRI{Value: RDFNamespace + "type"}
	RDFLangStr  = IRI{Value: RDFNamespace + "langString"}
	XSDString   = IRI{Value: XSDNamespace + "string"}
	XSDInteger  = IRI{Value: XSDNamespace + "integer"}
	XSDBoolean  = IRI{Value: XSDNamespace + "boolean"}
	XSDDecimal  = IRI{Value: XSDNamespace + "decimal"}
	XSDDate     = IRI{Value: XSDNamespace + "date"}
	XSDDateTime = IRI{Value: XSDNamespace + "dateTime"}
)
