package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/roach88/tablegraph/internal/engine"
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/store"
)

// MapOptions holds flags for the map command.
type MapOptions struct {
	*RootOptions
	Database        string
	Output          string
	Parallelism     int
	RowWorkers      int
	BestEffort      bool
	SkipInvalidRows bool
	MaxRows         int
	Stats           bool
}

// MapSummary is the JSON payload of a map run.
type MapSummary struct {
	Triples []string   `json:"triples,omitempty"` // omitted when written to --output
	Count   int        `json:"count"`
	Rows    int64      `json:"rows"`
	Skipped int64      `json:"skipped"`
	Output  string     `json:"output,omitempty"`
	Stats   *MapStats  `json:"stats,omitempty"`
	Errors  []MapError `json:"errors,omitempty"`
}

// MapError is one best-effort failure.
type MapError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MapStats are totals read back from the resolver's Prometheus metrics.
type MapStats struct {
	Rows    float64            `json:"rows"`
	Triples float64            `json:"triples"`
	Errors  map[string]float64 `json:"errors,omitempty"`
}

// NewMapCommand creates the map command.
func NewMapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "map [mapping]",
		Short: "Resolve a mapping against a database and emit N-Triples",
		Long: `Resolve every entity map of a CUE mapping against a SQLite database.

The mapping is a .cue file or a directory of them. The resulting graph is
deduplicated, sorted and written as N-Triples to stdout or --output.

By default the first error aborts the run. --skip-invalid-rows drops rows
that fail to resolve; --best-effort keeps going when an entity map fails
and exits 1 after writing the partial graph.

Example:
  tablegraph map --db ./hr.db ./mappings
  tablegraph map --db ./hr.db person.cue -o person.nt --stats`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingPath := ""
			if len(args) == 1 {
				mappingPath = args[0]
			}
			return runMap(opts, mappingPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write N-Triples to file instead of stdout")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 1, "entity maps resolved concurrently")
	cmd.Flags().IntVar(&opts.RowWorkers, "row-workers", 1, "row workers per entity map")
	cmd.Flags().BoolVar(&opts.BestEffort, "best-effort", false, "continue past failed entity maps")
	cmd.Flags().BoolVar(&opts.SkipInvalidRows, "skip-invalid-rows", false, "drop rows that fail to resolve")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "fail an entity map after this many rows (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "report row, triple and error totals")

	return cmd
}

// applyConfig fills flags the user did not set from the --config file.
func (opts *MapOptions) applyConfig(cmd *cobra.Command, mappingPath *string) {
	cfg := opts.Config
	if cfg == nil {
		return
	}
	flags := cmd.Flags()
	applyString(flags, "db", &opts.Database, cfg.Database)
	applyInt(flags, "parallelism", &opts.Parallelism, cfg.Parallelism)
	applyInt(flags, "row-workers", &opts.RowWorkers, cfg.RowWorkers)
	applyInt(flags, "max-rows", &opts.MaxRows, cfg.MaxRows)
	applyBool(flags, "best-effort", &opts.BestEffort, cfg.BestEffort)
	applyBool(flags, "skip-invalid-rows", &opts.SkipInvalidRows, cfg.SkipInvalidRows)
	if *mappingPath == "" {
		*mappingPath = cfg.Mapping
	}
}

func runMap(opts *MapOptions, mappingPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	opts.applyConfig(cmd, &mappingPath)

	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	if mappingPath == "" {
		_ = formatter.Error(ErrCodeNotFound, "mapping path is required (argument or config)", nil)
		return reportedError(ExitCommandError, "mapping path is required", nil)
	}
	if opts.Database == "" {
		_ = formatter.Error(ErrCodeNotFound, "--db is required", nil)
		return reportedError(ExitCommandError, "--db is required", nil)
	}
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return reportedError(ExitCommandError, "database not found", err)
	}

	logger.Debug("loading mapping", "path", mappingPath)
	loaded, err := LoadMapping(mappingPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	logger.Debug("mapping compiled", "entity_maps", loaded.Spec.Len(), "files", loaded.FileCount)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("failed to open database: %v", err), nil)
		return reportedError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithParallelism(opts.Parallelism),
		engine.WithRowWorkers(opts.RowWorkers),
		engine.WithMaxRows(opts.MaxRows),
	}
	if opts.SkipInvalidRows {
		engineOpts = append(engineOpts, engine.WithRowErrorPolicy(engine.SkipRow))
	}
	if opts.BestEffort {
		engineOpts = append(engineOpts, engine.WithBestEffort())
	}
	var reg *prometheus.Registry
	if opts.Stats {
		reg = prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(reg))
	}

	resolver, err := engine.New(st, engineOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return reportedError(ExitCommandError, "failed to create resolver", err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	res, err := resolver.Resolve(ctx, loaded.Spec)
	if err != nil {
		code := string(engine.CodeOf(err))
		_ = formatter.Error(code, err.Error(), nil)
		return reportedError(ExitFailure, "resolution failed", err)
	}

	summary, err := writeGraph(opts, formatter, res)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return reportedError(ExitCommandError, "failed to write output", err)
	}
	if reg != nil {
		stats, err := gatherStats(reg)
		if err != nil {
			logger.Warn("failed to gather metrics", "error", err)
		}
		summary.Stats = stats
	}
	for _, e := range res.Errors {
		summary.Errors = append(summary.Errors, MapError{Code: string(engine.CodeOf(e)), Message: e.Error()})
	}

	return outputMapSummary(formatter, summary, res)
}

// signalContext cancels on SIGINT or SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, func()) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// writeGraph writes N-Triples to --output or, in text mode, to stdout.
// In JSON mode without --output the triples go into the summary instead.
func writeGraph(opts *MapOptions, formatter *OutputFormatter, res *engine.Result) (summary *MapSummary, err error) {
	graph := res.Graph()
	summary = &MapSummary{
		Count:   len(graph),
		Rows:    res.Rows,
		Skipped: res.Skipped,
		Output:  opts.Output,
	}

	var w io.Writer
	switch {
	case opts.Output != "":
		f, cerr := createOutput(opts.Output)
		if cerr != nil {
			return nil, fmt.Errorf("creating %s: %w", opts.Output, cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				summary, err = nil, fmt.Errorf("closing %s: %w", opts.Output, cerr)
			}
		}()
		w = f
	case formatter.IsJSON():
		summary.Triples = make([]string, len(graph))
		for i, t := range graph {
			summary.Triples[i] = rdf.Line(t)
		}
		return summary, nil
	default:
		w = formatter.Writer
	}

	if err := encodeGraph(w, graph); err != nil {
		return nil, err
	}
	formatter.VerboseLog("Wrote %d triple(s)", len(graph))
	return summary, nil
}

// createOutput opens the --output file. Replaced in tests.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// encodeGraph writes graph to w as N-Triples.
func encodeGraph(w io.Writer, graph []rdf.Triple) error {
	nw := rdf.NewNTriplesWriter(w)
	for _, t := range graph {
		if err := nw.Write(t); err != nil {
			return err
		}
	}
	return nw.Flush()
}

func outputMapSummary(formatter *OutputFormatter, summary *MapSummary, res *engine.Result) error {
	failed := len(summary.Errors) > 0

	if formatter.IsJSON() {
		if failed {
			_ = formatter.Failure(summary, summary.Errors[0].Code,
				fmt.Sprintf("%d entity map(s) failed", len(summary.Errors)))
			return reportedError(ExitFailure, "entity maps failed", res.Err())
		}
		return formatter.Success(summary)
	}

	errOut := formatter.GetErrWriter()
	if summary.Output != "" {
		fmt.Fprintf(errOut, "✓ Wrote %d triple(s) to %s\n", summary.Count, summary.Output)
	}
	if summary.Stats != nil {
		fmt.Fprintf(errOut, "rows: %d (skipped %d), triples emitted: %.0f\n",
			summary.Rows, summary.Skipped, summary.Stats.Triples)
		codes := make([]string, 0, len(summary.Stats.Errors))
		for code := range summary.Stats.Errors {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(errOut, "errors[%s]: %.0f\n", code, summary.Stats.Errors[code])
		}
	}
	if failed {
		for _, e := range summary.Errors {
			fmt.Fprintf(errOut, "✗ [%s] %s\n", e.Code, e.Message)
		}
		return reportedError(ExitFailure, "entity maps failed", res.Err())
	}
	return nil
}

// gatherStats sums the resolver's counters across label values.
func gatherStats(reg *prometheus.Registry) (*MapStats, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	stats := &MapStats{Errors: map[string]float64{}}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			switch mf.GetName() {
			case "tablegraph_rows_total":
				stats.Rows += v
			case "tablegraph_triples_total":
				stats.Triples += v
			case "tablegraph_errors_total":
				stats.Errors[labelValue(m, "code")] += v
			}
		}
	}
	return stats, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// reportLoadError prints a mapping load failure and returns exit code 2.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		var details any
		if line := loadErr.Line(); line > 0 {
			details = map[string]any{"line": line}
		}
		_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	} else {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	}
	return reportedError(ExitCommandError, "failed to load mapping", err)
}
