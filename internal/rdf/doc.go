// Package rdf defines the RDF terms and triples produced by tablegraph,
// along with an N-Triples encoder for writing them out.
//
// The term model follows rdf-go's (IRI, BlankNode, Literal, Triple with
// S, P, O) so values convert field for field.
//
// Terms are comparable values: two terms are equal exactly when they
// denote the same RDF term, so Triple can be used as a map key.
package rdf
