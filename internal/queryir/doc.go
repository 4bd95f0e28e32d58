// Package queryir provides the abstract query representation of entity
// sources: where an EntityMap's rows come from.
//
// QueryIR is the boundary between mapping construction and the backends
// that produce rows. A mapping only ever builds these values; the SQL
// backend (querysql) and the in-memory backend (source) interpret them.
//
//	[mapping.Source] → [Query IR] → [querysql → SQLite]
//	                              → [source.Memory]
//
// QUERY SHAPES:
//
//   - Table(name) - a base table
//   - View(sql, version) - a user-supplied SQL query (R2RML rr:sqlQuery)
//   - Join(child, parent, on) - inner join projecting the child's columns
//
// Join conditions are ColumnEquals predicates combined with And. A joined
// query built from an ordered condition list is the left fold of the
// conditions into nested And nodes flattened to one level.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so backends can switch
// exhaustively:
//
//	switch q := query.(type) {
//	case Table:
//	case View:
//	case Join:
//	}
//
// DETERMINISM:
//
// Definition renders a query as a canonical map suitable for ir.SourceID.
// Structurally equal queries have equal definitions, and so equal IDs.
package queryir
