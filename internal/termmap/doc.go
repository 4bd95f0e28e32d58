// Package termmap resolves term definitions against rows.
//
// A Definition is a closed sum type with three variants:
//
//   - Constant: always yields the wrapped term
//   - Template: a pattern with {column} placeholders
//   - Column: the value of one column
//
// Template and Column carry an explicit TermType; Undefined is rejected at
// resolution time. Resolve works on a single record. ResolveJoined works on
// a pair of records correlated by join conditions.
//
// A referenced column that is absent fails with MISSING_COLUMN. A column
// that is present but NULL yields ErrNullValue: no term exists for it and
// the caller skips whatever it was building.
package termmap
