package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/tablegraph/internal/compiler"
	"github.com/roach88/tablegraph/internal/engine"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/source"
	"github.com/roach88/tablegraph/internal/store"
	"github.com/roach88/tablegraph/internal/testutil"
)

// blankPrefix labels every blank node produced under the harness.
const blankPrefix = "b"

// Harness is the test execution engine.
// It runs one scenario against a fresh data source.
type Harness struct {
	scenario *Scenario
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh data source for isolation: an
// in-memory table set, or a private in-memory SQLite database.
//
// Execution flow:
// 1. Compile the mapping
// 2. Seed the fixture tables
// 3. Resolve the mapping
// 4. Evaluate assertions against the graph and the resolution error
//
// Mapping errors that carry a code (an INVALID_SUBJECT_TYPE subject, say)
// are recorded as the resolution error so scenarios can assert on them.
// Infrastructure failures are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx)
}

func (h *Harness) run(ctx context.Context) (*Result, error) {
	result := NewResult()

	spec, err := h.compile()
	if err != nil {
		code := engine.CodeOf(err)
		if code == engine.ErrCodeInternal {
			return nil, fmt.Errorf("failed to compile mapping: %w", err)
		}
		result.ErrorCode = string(code)
		result.Error = err.Error()
		h.evaluate(result)
		return result, nil
	}

	ds, closeFn, err := h.dataSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed tables: %w", err)
	}
	defer closeFn()

	res, err := h.resolve(ctx, ds, spec)
	switch {
	case err != nil:
		result.ErrorCode = string(engine.CodeOf(err))
		result.Error = err.Error()
	default:
		result.setGraph(res.Graph())
		result.Rows = res.Rows
		result.Skipped = res.Skipped
		if rerr := res.Err(); rerr != nil {
			result.ErrorCode = string(engine.CodeOf(rerr))
			result.Error = rerr.Error()
		}
	}

	h.logger.Info("scenario resolved",
		"scenario", h.scenario.Name,
		"triples", len(result.Triples),
		"error_code", result.ErrorCode,
	)

	h.evaluate(result)
	return result, nil
}

// compile loads the scenario's CUE mapping.
func (h *Harness) compile() (*mapping.Spec, error) {
	if h.scenario.MappingSource != "" {
		return compiler.CompileString(h.scenario.Name+".cue", h.scenario.MappingSource)
	}
	src, err := os.ReadFile(h.scenario.Mapping)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return compiler.CompileString(h.scenario.Mapping, string(src))
}

// dataSource builds the scenario's backend and seeds it.
// The returned function releases the backend.
func (h *Harness) dataSource(ctx context.Context) (source.DataSource, func(), error) {
	if h.scenario.Backend == BackendSQLite {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		for _, t := range h.scenario.Tables {
			if err := h.seedSQLite(ctx, st, t); err != nil {
				st.Close()
				return nil, nil, err
			}
		}
		return st, func() { st.Close() }, nil
	}

	mem := source.NewMemory()
	for _, t := range h.scenario.Tables {
		rows, err := t.records()
		if err != nil {
			return nil, nil, err
		}
		mem.AddTable(t.Name, rows)
	}
	return mem, func() {}, nil
}

func (h *Harness) seedSQLite(ctx context.Context, st *store.Store, t Table) error {
	rows, err := t.records()
	if err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		if err := st.CreateTable(ctx, t.Name, t.Columns); err != nil {
			return err
		}
		return st.InsertRows(ctx, t.Name, rows)
	}
	return st.LoadTable(ctx, t.Name, rows)
}

func (h *Harness) resolve(ctx context.Context, ds source.DataSource, spec *mapping.Spec) (*engine.Result, error) {
	opts := h.scenario.Options
	policy, err := opts.rowPolicy()
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithBlankGenerator(testutil.NewFixedBlankGenerator(blankPrefix)),
		engine.WithRowErrorPolicy(policy),
		engine.WithMaxRows(opts.MaxRows),
	}
	if opts.BestEffort {
		engineOpts = append(engineOpts, engine.WithBestEffort())
	}
	if opts.Parallelism > 0 {
		engineOpts = append(engineOpts, engine.WithParallelism(opts.Parallelism))
	}
	if opts.RowWorkers > 0 {
		engineOpts = append(engineOpts, engine.WithRowWorkers(opts.RowWorkers))
	}

	resolver, err := engine.New(ds, engineOpts...)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(ctx, spec)
}

// evaluate runs the assertions and records failures on result.
func (h *Harness) evaluate(result *Result) {
	expectsError := false
	for _, a := range h.scenario.Assertions {
		if a.Type == AssertError {
			expectsError = true
		}
	}
	if result.ErrorCode != "" && !expectsError {
		result.AddError(fmt.Sprintf("resolution failed: %s", result.Error))
	}
	for _, msg := range EvaluateAssertions(result, h.scenario.Assertions) {
		result.AddError(msg)
	}
}
