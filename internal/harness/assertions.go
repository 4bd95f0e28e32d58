package harness

import (
	"fmt"
	"slices"
	"strings"
)

// maxTraceLines bounds the graph excerpt printed with a failed assertion.
const maxTraceLines = 20

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Triples  []string // Resolved graph for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Triples) > 0 {
		fmt.Fprintf(&buf, "\nGraph:\n")
		for i, line := range e.Triples {
			if i == maxTraceLines {
				fmt.Fprintf(&buf, "  ... %d more\n", len(e.Triples)-i)
				break
			}
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// normalizeTriple trims whitespace and adds the terminating " ." so
// scenario authors may omit it.
func normalizeTriple(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ".") {
		s += " ."
	}
	return s
}

// assertContains checks the graph holds the statement.
func assertContains(triples []string, assertion Assertion) error {
	want := normalizeTriple(assertion.Triple)
	if slices.Contains(triples, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: want,
		Actual:   "not found in graph",
		Triples:  triples,
	}
}

// assertAbsent checks the graph does not hold the statement.
func assertAbsent(triples []string, assertion Assertion) error {
	unwanted := normalizeTriple(assertion.Triple)
	if !slices.Contains(triples, unwanted) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("no %s", unwanted),
		Actual:   "found in graph",
		Triples:  triples,
	}
}

// assertCount checks the number of triples, optionally for one predicate.
func assertCount(triples []string, assertion Assertion) error {
	count := len(triples)
	what := "triples"
	if assertion.Predicate != "" {
		marker := " <" + assertion.Predicate + "> "
		count = 0
		for _, line := range triples {
			if strings.Contains(line, marker) {
				count++
			}
		}
		what = fmt.Sprintf("triples with predicate <%s>", assertion.Predicate)
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Triples:  triples,
		}
	}
	return nil
}

// assertErrorCode checks resolution failed with the given code.
func assertErrorCode(result *Result, assertion Assertion) error {
	if result.ErrorCode == assertion.Code {
		return nil
	}
	actual := "resolution succeeded"
	if result.ErrorCode != "" {
		actual = fmt.Sprintf("%s (%s)", result.ErrorCode, result.Error)
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("error %s", assertion.Code),
		Actual:   actual,
		Triples:  result.Triples,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertContains:
			err = assertContains(result.Triples, assertion)
		case AssertAbsent:
			err = assertAbsent(result.Triples, assertion)
		case AssertCount:
			err = assertCount(result.Triples, assertion)
		case AssertError:
			err = assertErrorCode(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
