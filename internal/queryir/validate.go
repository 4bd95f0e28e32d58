package queryir

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationResult contains the structural and portability analysis of a
// query.
type ValidationResult struct {
	// Errors lists problems that prevent any backend from executing the
	// query (missing names, cross joins).
	Errors []string

	// Warnings lists features outside the portable fragment. A query with
	// warnings runs on the SQL backend only.
	Warnings []string
}

// IsValid reports whether the query has no errors.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// IsPortable reports whether the query runs on every backend.
func (r ValidationResult) IsPortable() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

// KnownSQLVersions lists the rr:sqlVersion identifiers the SQL backend
// accepts without a warning.
var KnownSQLVersions = []string{
	"http://www.w3.org/ns/r2rml#SQL2008",
	"SQL2008",
}

// Validate checks a query for structural errors and non-portable features.
//
// Rules:
//  1. Tables must be named
//  2. Views must carry query text; views are not portable
//  3. Joins need both sides and a non-empty condition set
//  4. Condition columns must be named
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{}
	v.validateQuery(query, "")
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, prefixed(path, fmt.Sprintf(format, args...)))
}

func (v *validator) addWarning(path, format string, args ...any) {
	v.warnings = append(v.warnings, prefixed(path, fmt.Sprintf(format, args...)))
}

func prefixed(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}

func (v *validator) validateQuery(q Query, path string) {
	switch query := q.(type) {
	case nil:
		v.addError(path, "nil query")
	case Table:
		v.validateTable(query, path)
	case *Table:
		v.validateTable(*query, path)
	case View:
		v.validateView(query, path)
	case *View:
		v.validateView(*query, path)
	case Join:
		v.validateJoin(query, path)
	case *Join:
		v.validateJoin(*query, path)
	default:
		v.addError(path, "unknown query type %T", q)
	}
}

func (v *validator) validateTable(t Table, path string) {
	if strings.TrimSpace(t.Name) == "" {
		v.addError(path, "table name is empty")
	}
}

func (v *validator) validateView(view View, path string) {
	if strings.TrimSpace(view.SQL) == "" {
		v.addError(path, "view query is empty")
		return
	}
	v.addWarning(path, "SQL view is backend-specific")
	if view.Version != "" && !slices.Contains(KnownSQLVersions, view.Version) {
		v.addWarning(path, "unrecognized sqlVersion %q", view.Version)
	}
}

func (v *validator) validateJoin(j Join, path string) {
	v.validateQuery(j.Child, joinPath(path, "child"))
	v.validateQuery(j.Parent, joinPath(path, "parent"))

	conds := Conditions(j.On)
	if len(conds) == 0 {
		v.addError(path, "join has no conditions (cross joins are not supported)")
		return
	}
	for i, c := range conds {
		if c.Child == "" || c.Parent == "" {
			v.addError(joinPath(path, fmt.Sprintf("on[%d]", i)), "condition column is empty")
		}
	}
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

