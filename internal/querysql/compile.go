package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tablegraph/internal/queryir"
)

// SQLCompiler compiles QueryIR sources to SQL for SQLite.
//
// CRITICAL: Queries over base tables include ORDER BY rowid so row order
// (and therefore blank node scopes and output order) is deterministic.
// CRITICAL: Identifiers are always quoted; view text is passed through
// verbatim inside a subquery.
type SQLCompiler struct {
	// ChildAlias and ParentAlias name the two sides of a compiled join.
	ChildAlias  string
	ParentAlias string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		ChildAlias:  "child",
		ParentAlias: "parent",
	}
}

// Compile converts a QueryIR query to SQL.
// Returns (sql, params, error); params is reserved for filtered sources and
// is currently always empty since sources carry no literal values.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Table:
		return c.compileTable(query)
	case *queryir.Table:
		return c.compileTable(*query)
	case queryir.View:
		return c.compileView(query)
	case *queryir.View:
		return c.compileView(*query)
	case queryir.Join:
		return c.compileJoin(query)
	case *queryir.Join:
		return c.compileJoin(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileTable compiles a base table access.
// MANDATORY: Includes ORDER BY rowid.
func (c *SQLCompiler) compileTable(t queryir.Table) (string, []any, error) {
	if t.Name == "" {
		return "", nil, fmt.Errorf("table name is empty")
	}
	sql := fmt.Sprintf("SELECT * FROM %s ORDER BY rowid ASC", QuoteIdent(t.Name))
	return sql, nil, nil
}

// compileView wraps the view text so it can be used as a row source.
// The view's own ORDER BY, if any, determines row order.
func (c *SQLCompiler) compileView(v queryir.View) (string, []any, error) {
	text := strings.TrimRight(strings.TrimSpace(v.SQL), ";")
	if text == "" {
		return "", nil, fmt.Errorf("view query is empty")
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS %s", text, QuoteIdent("view")), nil, nil
}

// compileJoin compiles a queryir.Join to an INNER JOIN projecting the
// child's columns.
//
// Example:
//
//	SELECT child.* FROM "emp" AS child
//	INNER JOIN "dept" AS parent
//	ON CAST(child."dept_id" AS TEXT) = CAST(parent."id" AS TEXT)
//	ORDER BY child.rowid ASC, parent.rowid ASC
//
// Columns compare as TEXT so an INTEGER key matches the same key stored
// as TEXT, matching ir.Equal. SQL NULL never satisfies "=".
func (c *SQLCompiler) compileJoin(j queryir.Join) (string, []any, error) {
	conds := queryir.Conditions(j.On)
	if len(conds) == 0 {
		return "", nil, fmt.Errorf("join has no conditions")
	}

	childFrom, childOrdered, err := c.fromItem(j.Child)
	if err != nil {
		return "", nil, fmt.Errorf("compile join child: %w", err)
	}
	parentFrom, parentOrdered, err := c.fromItem(j.Parent)
	if err != nil {
		return "", nil, fmt.Errorf("compile join parent: %w", err)
	}

	on := make([]string, 0, len(conds))
	for _, cond := range conds {
		if cond.Child == "" || cond.Parent == "" {
			return "", nil, fmt.Errorf("join condition has empty column")
		}
		on = append(on, fmt.Sprintf("CAST(%s.%s AS TEXT) = CAST(%s.%s AS TEXT)",
			c.ChildAlias, QuoteIdent(cond.Child),
			c.ParentAlias, QuoteIdent(cond.Parent)))
	}

	sql := fmt.Sprintf("SELECT %s.* FROM %s AS %s INNER JOIN %s AS %s ON %s",
		c.ChildAlias, childFrom, c.ChildAlias,
		parentFrom, c.ParentAlias,
		strings.Join(on, " AND "))

	var order []string
	if childOrdered {
		order = append(order, c.ChildAlias+".rowid ASC")
	}
	if parentOrdered {
		order = append(order, c.ParentAlias+".rowid ASC")
	}
	if len(order) > 0 {
		sql += " ORDER BY " + strings.Join(order, ", ")
	}

	return sql, nil, nil
}

// fromItem renders one side of a join. Base tables are referenced
// directly and report true so the join can order by their rowid;
// anything else becomes a parenthesized subquery.
func (c *SQLCompiler) fromItem(q queryir.Query) (string, bool, error) {
	switch v := q.(type) {
	case queryir.Table:
		if v.Name == "" {
			return "", false, fmt.Errorf("table name is empty")
		}
		return QuoteIdent(v.Name), true, nil
	case *queryir.Table:
		return c.fromItem(*v)
	case queryir.View:
		text := strings.TrimRight(strings.TrimSpace(v.SQL), ";")
		if text == "" {
			return "", false, fmt.Errorf("view query is empty")
		}
		return "(" + text + ")", false, nil
	case *queryir.View:
		return c.fromItem(*v)
	default:
		sql, _, err := c.Compile(q)
		if err != nil {
			return "", false, err
		}
		return "(" + sql + ")", false, nil
	}
}

// QuoteIdent quotes an SQLite identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
