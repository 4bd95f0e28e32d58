package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tablegraph/internal/engine"
	"github.com/roach88/tablegraph/internal/ir"
)

// Scenario defines a conformance test scenario: fixture tables, a mapping
// and assertions over the resolved graph.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mapping is the path of the CUE mapping document.
	// Relative paths are resolved against the scenario file's directory.
	Mapping string `yaml:"mapping,omitempty"`

	// MappingSource is an inline CUE mapping document.
	// Exactly one of Mapping and MappingSource must be set.
	MappingSource string `yaml:"mapping_source,omitempty"`

	// Backend selects the data source: "memory" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// Tables are the fixture tables.
	Tables []Table `yaml:"tables"`

	// Options configure the resolver.
	Options Options `yaml:"options,omitempty"`

	// Assertions validate the resolved graph.
	// Supported types: contains, absent, count, error
	Assertions []Assertion `yaml:"assertions"`
}

// Table is a fixture table.
type Table struct {
	// Name is the table name logical tables refer to.
	Name string `yaml:"name"`

	// Columns is the column layout of Rows.
	Columns []string `yaml:"columns,omitempty"`

	// Rows hold one value per column. YAML ~ is a NULL value.
	Rows [][]any `yaml:"rows,omitempty"`

	// Records hold rows as column maps. Unlike Rows they may use
	// different columns per row, which only the memory backend keeps.
	Records []map[string]any `yaml:"records,omitempty"`
}

// Options mirror the resolver options.
type Options struct {
	// RowPolicy is "fail_fast" (default) or "skip_row".
	RowPolicy   string `yaml:"row_policy,omitempty"`
	BestEffort  bool   `yaml:"best_effort,omitempty"`
	Parallelism int    `yaml:"parallelism,omitempty"`
	RowWorkers  int    `yaml:"row_workers,omitempty"`
	MaxRows     int    `yaml:"max_rows,omitempty"`
}

// Assertion validates the resolved graph or the resolution error.
type Assertion struct {
	// Type specifies the assertion type:
	// - "contains": Triple is in the graph
	// - "absent": Triple is not in the graph
	// - "count": the graph holds exactly Count triples
	// - "error": resolution failed with Code
	Type string `yaml:"type"`

	// Triple is one N-Triples statement (used by contains, absent).
	Triple string `yaml:"triple,omitempty"`

	// Predicate restricts count to triples with this predicate IRI.
	Predicate string `yaml:"predicate,omitempty"`

	// Count is the expected number of triples (used by count).
	Count int `yaml:"count,omitempty"`

	// Code is the expected error code (used by error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertContains = "contains"
	AssertAbsent   = "absent"
	AssertCount    = "count"
	AssertError    = "error"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Mapping path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Mapping != "" && !filepath.IsAbs(scenario.Mapping) {
		scenario.Mapping = filepath.Join(filepath.Dir(path), scenario.Mapping)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Mapping != "" && s.MappingSource != "":
		return fmt.Errorf("mapping and mapping_source are mutually exclusive")
	case s.Mapping == "" && s.MappingSource == "":
		return fmt.Errorf("mapping or mapping_source is required")
	case s.Mapping != "":
		if _, err := os.Stat(s.Mapping); os.IsNotExist(err) {
			return &MappingNotFoundError{Scenario: s.Name, Path: s.Mapping}
		}
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	if _, err := s.Options.rowPolicy(); err != nil {
		return err
	}
	if s.Options.Parallelism < 0 || s.Options.RowWorkers < 0 || s.Options.MaxRows < 0 {
		return fmt.Errorf("options must be non-negative")
	}

	names := make(map[string]bool)
	for i, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
		if names[t.Name] {
			return fmt.Errorf("tables[%d]: table %q declared twice", i, t.Name)
		}
		names[t.Name] = true
		if len(t.Rows) > 0 && len(t.Records) > 0 {
			return fmt.Errorf("tables[%d]: rows and records are mutually exclusive", i)
		}
		if len(t.Rows) > 0 && len(t.Columns) == 0 {
			return fmt.Errorf("tables[%d]: columns are required with rows", i)
		}
		for j, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return fmt.Errorf("tables[%d].rows[%d]: has %d values, want %d", i, j, len(row), len(t.Columns))
			}
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertAbsent:
		if a.Triple == "" {
			return fmt.Errorf("assertions[%d]: triple is required for %s", index, a.Type)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (o Options) rowPolicy() (engine.RowErrorPolicy, error) {
	switch o.RowPolicy {
	case "", "fail_fast":
		return engine.FailFast, nil
	case "skip_row":
		return engine.SkipRow, nil
	default:
		return engine.FailFast, fmt.Errorf("unknown row_policy %q", o.RowPolicy)
	}
}

// records converts the table's YAML rows into records.
func (t Table) records() ([]ir.Record, error) {
	out := make([]ir.Record, 0, len(t.Rows)+len(t.Records))
	for i, row := range t.Rows {
		cols := make([]ir.Column, len(t.Columns))
		for j, name := range t.Columns {
			v, err := ir.FromGo(row[j])
			if err != nil {
				return nil, fmt.Errorf("table %s row %d column %q: %w", t.Name, i, name, err)
			}
			cols[j] = ir.C(name, v)
		}
		rec, err := ir.NewRecord(cols...)
		if err != nil {
			return nil, fmt.Errorf("table %s row %d: %w", t.Name, i, err)
		}
		out = append(out, rec)
	}
	for i, m := range t.Records {
		vals := make(map[string]ir.Value, len(m))
		for name, raw := range m {
			v, err := ir.FromGo(raw)
			if err != nil {
				return nil, fmt.Errorf("table %s record %d column %q: %w", t.Name, i, name, err)
			}
			vals[name] = v
		}
		out = append(out, ir.RecordFromMap(vals))
	}
	return out, nil
}

// MappingNotFoundError is returned when a scenario's mapping file doesn't
// exist.
type MappingNotFoundError struct {
	Scenario string
	Path     string
}

// Error implements the error interface.
func (e *MappingNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references mapping file %q which does not exist", e.Scenario, e.Path)
}
