// Package engine resolves a mapping against a data source.
//
// A Resolver runs each entity map of a mapping.Spec: it pulls the entity
// map's rows lazily from a source.DataSource and, per row, resolves the
// subject, emits one rdf:type triple per class, then resolves every
// predicate-object pair. Referencing object maps join against an index of
// the parent entity map's rows and emit one triple per matching parent.
//
// ARCHITECTURE:
//
// Per-row state machine:
//  1. pull the next row; exhaustion ends the entity map
//  2. resolve the subject (NULL skips the row)
//  3. reject literal subjects (INVALID_SUBJECT_TYPE)
//  4. emit class triples
//  5. resolve each pair; predicates must be IRIs (INVALID_PREDICATE_TYPE)
//  6. check for cancellation before the next row
//
// Concurrency:
// Entity maps run on an errgroup bounded by WithParallelism. Rows of one
// entity map can fan out to WithRowWorkers workers fed by an unbuffered
// channel. Workers hand whole row batches to a Sink, and batches are
// ordered by row index when read back, so output does not depend on
// scheduling.
//
// Parent indexes are built before the child's rows are opened and cached
// for the duration of one call, keyed by joined source ID. A Resolver can
// be reused after the data source changes.
//
// Errors:
// Fail-fast is the default: the first error cancels the run. SkipRow and
// WithBestEffort are opt-in. Every error returned carries a code; see
// CodeOf and the Is<Kind> helpers.
package engine
