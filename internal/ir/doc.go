// Package ir provides the row-level value types shared by every tablegraph
// package, plus the canonical encoding used for content-addressed identity.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float values - SQL REAL columns must be read as TEXT
//   - Records are immutable once built
//   - Identity hashes use RFC 8785 canonical JSON with domain separation
package ir
