// Package harness runs conformance scenarios against the resolver.
//
// A scenario seeds tables, compiles a CUE mapping, resolves it and checks
// the produced graph with assertions and, in tests, a golden N-Triples
// file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: person_dept
//	description: "Persons link to the department they belong to"
//	mapping: person_dept.cue        # relative to the scenario file
//	backend: memory                 # or sqlite
//	tables:
//	  - name: person
//	    columns: [id, name, dept_id]
//	    rows:
//	      - ["7", "Ann", "1"]
//	      - ["8", ~, "2"]           # ~ is a NULL column value
//	  - name: legacy
//	    records:                     # rows with differing columns
//	      - {id: "1", name: "Ann"}
//	      - {name: "Ghost"}
//	options:
//	  row_policy: skip_row
//	  best_effort: false
//	  parallelism: 2
//	  row_workers: 2
//	  max_rows: 0
//	assertions:
//	  - type: contains
//	    triple: '<http://ex.org/person/7> <http://ex.org/name> "Ann" .'
//	  - type: count
//	    predicate: http://ex.org/dept
//	    count: 1
//	  - type: error
//	    code: MISSING_COLUMN
//
// # Assertion Types
//
//   - contains: the graph holds the given N-Triples statement
//   - absent: the graph does not hold the statement
//   - count: the graph holds exactly count triples, optionally only
//     counting one predicate
//   - error: resolution failed with the given error code
//
// A scenario without an error assertion fails when resolution fails.
//
// # Deterministic Testing
//
// Blank nodes are labelled by testutil.FixedBlankGenerator and the graph
// is deduplicated and sorted, so two runs of a scenario render the same
// N-Triples document regardless of parallelism.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/person_dept.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
