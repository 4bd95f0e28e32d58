package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/store"
	"github.com/roach88/tablegraph/internal/testutil"
)

const personDeptMapping = `mapping: Person: {
	logicalTable: tableName: "person"
	subjectMap: {
		template: "http://ex.org/person/{id}"
		class:    "http://ex.org/Person"
	}
	predicateObjectMap: [{
		predicate: "http://ex.org/name"
		objectMap: column: "name"
	}, {
		predicate: "http://ex.org/dept"
		objectMap: {
			parentTriplesMap: "Dept"
			joinCondition: [{child: "dept_id", parent: "id"}]
		}
	}]
}

mapping: Dept: {
	logicalTable: tableName: "dept"
	subjectMap: {
		template: "http://ex.org/dept/{id}"
		class:    "http://ex.org/Dept"
	}
	predicateObjectMap: [{
		predicate: "http://ex.org/label"
		objectMap: column: "name"
	}]
}
`

// brokenPetMapping references a column the pet table lacks.
const brokenPetMapping = `
mapping: Pet: {
	logicalTable: tableName: "pet"
	subjectMap: template: "http://ex.org/pet/{tag}"
	predicateObjectMap: [{predicate: "http://ex.org/name", objectMap: column: "name"}]
}
`

// personDeptGraph is the sorted N-Triples output of personDeptMapping
// over seedDB.
const personDeptGraph = `<http://ex.org/dept/1> <http://ex.org/label> "Eng" .
<http://ex.org/dept/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex.org/Dept> .
<http://ex.org/person/7> <http://ex.org/dept> <http://ex.org/dept/1> .
<http://ex.org/person/7> <http://ex.org/name> "Ann" .
<http://ex.org/person/7> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex.org/Person> .
<http://ex.org/person/8> <http://ex.org/name> "Bob" .
<http://ex.org/person/8> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ex.org/Person> .
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// seedDB creates a SQLite database with person, dept and pet tables.
func seedDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "hr.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.LoadTable(ctx, "person", testutil.Rows(
		[]string{"id", "name", "dept_id"},
		[]any{"7", "Ann", "1"},
		[]any{"8", "Bob", "2"},
	)))
	require.NoError(t, st.LoadTable(ctx, "dept", testutil.Rows(
		[]string{"id", "name"},
		[]any{"1", "Eng"},
	)))
	require.NoError(t, st.LoadTable(ctx, "pet", testutil.Rows(
		[]string{"name"},
		[]any{"Rex"},
	)))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
