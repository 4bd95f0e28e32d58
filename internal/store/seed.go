package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/querysql"
)

// CreateTable creates a fixture table whose columns are all nullable TEXT
// and records it in the catalog.
//
// Creating an existing table with the same columns is a no-op; different
// columns fail.
func (s *Store) CreateTable(ctx context.Context, name string, columns []string) error {
	if name == "" {
		return fmt.Errorf("create table: empty table name")
	}
	if len(columns) == 0 {
		return fmt.Errorf("create table %q: no columns", name)
	}
	colsJSON, err := ir.MarshalCanonical(columns)
	if err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT columns FROM tablegraph_tables WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		if existing != string(colsJSON) {
			return fmt.Errorf("create table %q: already exists with columns %s", name, existing)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("read catalog: %w", err)
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = querysql.QuoteIdent(c) + " TEXT"
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", querysql.QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	// Logical creation order, never wall time.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tablegraph_tables (name, columns, created)
		SELECT ?, ?, COALESCE(MAX(created), 0) + 1 FROM tablegraph_tables
	`, name, string(colsJSON)); err != nil {
		return fmt.Errorf("record table %q: %w", name, err)
	}

	return tx.Commit()
}

// InsertRows appends rows to a fixture table in one transaction.
// Every record must only use columns declared by CreateTable; absent
// columns are stored as NULL.
func (s *Store) InsertRows(ctx context.Context, name string, rows []ir.Record) error {
	columns, err := s.TableColumns(ctx, name)
	if err != nil {
		return err
	}
	declared := make(map[string]bool, len(columns))
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		declared[c] = true
		quoted[i] = querysql.QuoteIdent(c)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.QuoteIdent(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare insert into %q: %w", name, err)
	}
	defer prepared.Close()

	for i, rec := range rows {
		for _, c := range rec.Columns() {
			if !declared[c] {
				return fmt.Errorf("insert into %q: row %d has undeclared column %q", name, i, c)
			}
		}
		args := make([]any, len(columns))
		for j, c := range columns {
			v, ok := rec.Lookup(c)
			if !ok || ir.IsNull(v) {
				continue
			}
			args[j] = v.Text()
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %q row %d: %w", name, i, err)
		}
	}

	return tx.Commit()
}

// LoadTable creates a table from the union of the rows' columns (in
// first-seen order) and inserts the rows.
func (s *Store) LoadTable(ctx context.Context, name string, rows []ir.Record) error {
	var columns []string
	seen := make(map[string]bool)
	for _, rec := range rows {
		for _, c := range rec.Columns() {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	if err := s.CreateTable(ctx, name, columns); err != nil {
		return err
	}
	return s.InsertRows(ctx, name, rows)
}

// TableColumns returns the declared columns of a fixture table.
func (s *Store) TableColumns(ctx context.Context, name string) ([]string, error) {
	var colsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM tablegraph_tables WHERE name = ?`, name).Scan(&colsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %q is not a fixture table", name)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var columns []string
	if err := json.Unmarshal([]byte(colsJSON), &columns); err != nil {
		return nil, fmt.Errorf("decode columns of %q: %w", name, err)
	}
	return columns, nil
}

// Tables returns fixture table names in creation order.
// Returns an empty slice (not nil) when none exist.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tablegraph_tables ORDER BY created ASC, name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return names, nil
}
