package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult describes a compiled mapping.
type CompileResult struct {
	EntityMaps []EntityMapSummary `json:"entity_maps"`
	FileCount  int                `json:"file_count"`
}

// EntityMapSummary is the compiled form of one entity map.
type EntityMapSummary struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	SourceID   string             `json:"source_id"`
	SQL        string             `json:"sql"`
	Classes    []string           `json:"classes,omitempty"`
	Pairs      int                `json:"pairs"`
	References []ReferenceSummary `json:"references,omitempty"`
}

// ReferenceSummary is one referencing object map.
type ReferenceSummary struct {
	Pair   int    `json:"pair"`
	Parent string `json:"parent"`
	SQL    string `json:"sql,omitempty"` // joined query; empty without join conditions
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <mapping>",
		Short: "Compile a mapping and show the queries it runs",
		Long: `Compile a CUE mapping into entity maps.

Prints each entity map with its logical source, content-addressed source
ID, the SQL it runs and the joined queries of its referencing object
maps. With --output the JSON summary is written to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write compiled summary as JSON to file")

	return cmd
}

func runCompile(opts *CompileOptions, mappingPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadMapping(mappingPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d entity map(s) from %d file(s)", loaded.Spec.Len(), loaded.FileCount)

	result, err := summarizeSpec(loaded.Spec)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return reportedError(ExitFailure, "failed to compile queries", err)
	}
	result.FileCount = loaded.FileCount

	if opts.Output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("encoding summary: %v", err), nil)
			return reportedError(ExitCommandError, "failed to encode summary", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", opts.Output, err), nil)
			return reportedError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	out := formatter.Writer
	fmt.Fprintf(out, "✓ Compiled %d entity map(s)\n", len(result.EntityMaps))
	for _, em := range result.EntityMaps {
		fmt.Fprintf(out, "\n%s  (%s)\n", em.ID, em.Source)
		fmt.Fprintf(out, "  source: %s\n", em.SourceID)
		fmt.Fprintf(out, "  sql:    %s\n", em.SQL)
		for _, class := range em.Classes {
			fmt.Fprintf(out, "  class:  %s\n", class)
		}
		fmt.Fprintf(out, "  pairs:  %d\n", em.Pairs)
		for _, ref := range em.References {
			if ref.SQL == "" {
				fmt.Fprintf(out, "  ref[%d] -> %s (same row)\n", ref.Pair, ref.Parent)
				continue
			}
			fmt.Fprintf(out, "  ref[%d] -> %s: %s\n", ref.Pair, ref.Parent, ref.SQL)
		}
	}
	if opts.Output != "" {
		fmt.Fprintf(out, "\nWrote %s\n", opts.Output)
	}
	return nil
}

// summarizeSpec compiles every source, including joined reference
// sources, to the SQL the SQLite backend would run.
func summarizeSpec(spec *mapping.Spec) (*CompileResult, error) {
	compiler := querysql.NewSQLCompiler()
	result := &CompileResult{EntityMaps: make([]EntityMapSummary, 0, spec.Len())}

	for _, em := range spec.EntityMaps() {
		sql, _, err := compiler.Compile(em.Source().Query())
		if err != nil {
			return nil, fmt.Errorf("entity map %s: %w", em.ID(), err)
		}
		summary := EntityMapSummary{
			ID:       em.ID(),
			Source:   em.Source().String(),
			SourceID: em.Source().ID(),
			SQL:      sql,
			Pairs:    em.NumPairs(),
		}
		for _, class := range em.Subject().Classes() {
			summary.Classes = append(summary.Classes, class.Value)
		}
		for _, ref := range spec.References(em.ID()) {
			rs := ReferenceSummary{Pair: ref.Pair, Parent: ref.Parent.ID()}
			if ref.Joined != nil {
				joined, _, err := compiler.Compile(ref.Joined.Query())
				if err != nil {
					return nil, fmt.Errorf("entity map %s pair %d: %w", em.ID(), ref.Pair, err)
				}
				rs.SQL = joined
			}
			summary.References = append(summary.References, rs)
		}
		result.EntityMaps = append(result.EntityMaps, summary)
	}
	return result, nil
}
