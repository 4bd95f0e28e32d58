package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/join"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/queryir"
)

// Memory is an in-memory DataSource.
//
// Tables are registered by name and views by their query text (compared
// after trimming whitespace and a trailing semicolon). Joined sources are
// evaluated with join.Rows over their child and parent rows.
//
// Thread-safety: Memory is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]ir.Record
	views  map[string][]ir.Record
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string][]ir.Record),
		views:  make(map[string][]ir.Record),
	}
}

// AddTable registers rows for a base table, replacing earlier rows.
func (m *Memory) AddTable(name string, rows []ir.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = append([]ir.Record(nil), rows...)
}

// AddView registers the rows a view's query produces.
func (m *Memory) AddView(sql string, rows []ir.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[normalizeSQL(sql)] = append([]ir.Record(nil), rows...)
}

// Tables returns the registered table names.
func (m *Memory) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names
}

// Rows implements DataSource.
func (m *Memory) Rows(ctx context.Context, src *mapping.Source) (RowIter, error) {
	if src == nil {
		return nil, Unavailable(src, fmt.Errorf("nil source"))
	}
	rows, err := m.eval(ctx, src.Query())
	if err != nil {
		return nil, Unavailable(src, err)
	}
	return NewSliceIter(rows), nil
}

func (m *Memory) eval(ctx context.Context, q queryir.Query) ([]ir.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v := q.(type) {
	case queryir.Table:
		m.mu.RLock()
		rows, ok := m.tables[v.Name]
		m.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("table %q not found", v.Name)
		}
		return rows, nil
	case queryir.View:
		m.mu.RLock()
		rows, ok := m.views[normalizeSQL(v.SQL)]
		m.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("view not registered: %s", v.SQL)
		}
		return rows, nil
	case queryir.Join:
		child, err := m.eval(ctx, v.Child)
		if err != nil {
			return nil, fmt.Errorf("join child: %w", err)
		}
		parent, err := m.eval(ctx, v.Parent)
		if err != nil {
			return nil, fmt.Errorf("join parent: %w", err)
		}
		return join.Rows(child, parent, queryir.Conditions(v.On))
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func normalizeSQL(sql string) string {
	return strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
}
