package harness

import (
	"github.com/roach88/tablegraph/internal/rdf"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Triples is the deduplicated, sorted graph in N-Triples form.
	Triples []string `json:"triples"`

	// ErrorCode is the code of the resolution error, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the resolution error message, if any.
	Error string `json:"error,omitempty"`

	// Rows is the number of rows read across all entity maps.
	Rows int64 `json:"rows"`

	// Skipped is the number of rows dropped under the skip_row policy.
	Skipped int64 `json:"skipped,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	graph []rdf.Triple
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Triples: []string{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Graph returns the resolved triples.
func (r *Result) Graph() []rdf.Triple {
	return append([]rdf.Triple(nil), r.graph...)
}

// setGraph records the graph and its N-Triples rendering.
func (r *Result) setGraph(graph []rdf.Triple) {
	r.graph = graph
	r.Triples = make([]string, len(graph))
	for i, t := range graph {
		r.Triples[i] = rdf.Line(t)
	}
}

// NTriples renders the result as an N-Triples document. A failed
// resolution is recorded as a leading comment line.
func (r *Result) NTriples() string {
	out := ""
	if r.ErrorCode != "" {
		out = "# error: " + r.ErrorCode + "\n"
	}
	return out + rdf.EncodeNTriples(r.graph)
}
