// Package store provides a SQLite-backed data source for tablegraph.
//
// The store serves rows for entity sources by compiling them with
// querysql and streaming the results as ir.Records. It can also seed
// tables from fixtures, recording each seeded table in a small catalog.
//
// # Critical Patterns
//
// Deterministic Row Order
//   - Table sources are read ORDER BY rowid
//   - Joined sources order by the rowids of their table sides
//   - Blank node scopes and output order depend on this
//
// Lexical Values
//   - INTEGER, TEXT and BLOB columns map to ir.Int and ir.String
//   - REAL columns are rendered in their shortest exact decimal form
//   - NULL maps to ir.Null
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Settings are passed in the DSN so every pooled connection carries them.
package store
