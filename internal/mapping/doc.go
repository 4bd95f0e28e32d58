// Package mapping holds the immutable mapping tree: entity sources, the
// subject, predicate and object maps built from term definitions, and the
// entity maps that tie them together.
//
// Every value is built by a validating constructor and never mutated
// afterwards, so a Spec can be shared by any number of resolvers and
// goroutines.
package mapping
