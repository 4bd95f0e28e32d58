package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/queryir"
	"github.com/roach88/tablegraph/internal/termmap"
	"github.com/roach88/tablegraph/internal/testutil"
)

func TestRows_DeptScenario(t *testing.T) {
	child := testutil.Rows([]string{"dept_id"}, []any{int64(1)}, []any{int64(2)})
	parent := testutil.Rows([]string{"id", "name"}, []any{int64(1), "Eng"})

	got, err := Rows(child, parent, []queryir.ColumnEquals{{Child: "dept_id", Parent: "id"}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	v, _ := got[0].Lookup("dept_id")
	assert.Equal(t, ir.Int(1), v)
	assert.Equal(t, []string{"dept_id"}, got[0].Columns(), "only child columns are projected")
}

func TestRows_FanOut(t *testing.T) {
	child := testutil.Rows([]string{"k"}, []any{"a"}, []any{"b"})
	parent := testutil.Rows([]string{"k", "n"},
		[]any{"a", "1"},
		[]any{"a", "2"},
		[]any{"b", "3"},
	)

	got, err := Rows(child, parent, []queryir.ColumnEquals{{Child: "k", Parent: "k"}})
	require.NoError(t, err)
	assert.Len(t, got, 3, "one row per matching parent, no dedup")
	assert.Equal(t, child[0], got[0])
	assert.Equal(t, child[0], got[1])
	assert.Equal(t, child[1], got[2])
}

func TestRows_NullNeverMatches(t *testing.T) {
	child := testutil.Rows([]string{"k"}, []any{nil}, []any{"x"})
	parent := testutil.Rows([]string{"k"}, []any{nil}, []any{"x"})

	got, err := Rows(child, parent, []queryir.ColumnEquals{{Child: "k", Parent: "k"}})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRows_LexicalComparison(t *testing.T) {
	child := testutil.Rows([]string{"k"}, []any{int64(7)})
	parent := testutil.Rows([]string{"k"}, []any{"7"})

	got, err := Rows(child, parent, []queryir.ColumnEquals{{Child: "k", Parent: "k"}})
	require.NoError(t, err)
	assert.Len(t, got, 1, "INTEGER 7 joins TEXT \"7\"")
}

func TestRows_ComparesBytes(t *testing.T) {
	// Composed and decomposed spellings of é are different join keys.
	child := testutil.Rows([]string{"k"}, []any{"\u00e9"})
	parent := testutil.Rows([]string{"id"}, []any{"e\u0301"})

	got, err := Rows(child, parent, []queryir.ColumnEquals{{Child: "k", Parent: "id"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	// Multi-column keys cannot collide by shifting text between columns.
	child = testutil.Rows([]string{"a", "b"}, []any{"ab", "c"})
	parent = testutil.Rows([]string{"a", "b"}, []any{"a", "bc"})
	got, err = Rows(child, parent, []queryir.ColumnEquals{{Child: "a", Parent: "a"}, {Child: "b", Parent: "b"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRows_ConditionOrderCommutes(t *testing.T) {
	child := testutil.Rows([]string{"a", "b"},
		[]any{"1", "x"},
		[]any{"1", "y"},
		[]any{"2", "x"},
	)
	parent := testutil.Rows([]string{"x", "y"},
		[]any{"1", "x"},
		[]any{"1", "x"},
		[]any{"2", "y"},
	)
	ax := queryir.ColumnEquals{Child: "a", Parent: "x"}
	by := queryir.ColumnEquals{Child: "b", Parent: "y"}

	forward, err := Rows(child, parent, []queryir.ColumnEquals{ax, by})
	require.NoError(t, err)
	reverse, err := Rows(child, parent, []queryir.ColumnEquals{by, ax})
	require.NoError(t, err)

	assert.Equal(t, forward, reverse)
	assert.Len(t, forward, 2)
}

func TestRows_NoConditions(t *testing.T) {
	_, err := Rows(nil, nil, nil)
	assert.Error(t, err)
}

func TestIndex_MissingColumn(t *testing.T) {
	conds := []queryir.ColumnEquals{{Child: "dept_id", Parent: "id"}}

	_, err := NewIndex(testutil.Rows([]string{"name"}, []any{"Eng"}), conds)
	assert.True(t, termmap.IsMissingColumn(err))

	ix, err := NewIndex(testutil.Rows([]string{"id"}, []any{"1"}), conds)
	require.NoError(t, err)
	_, err = ix.Match(testutil.Row("name", "Ann"))
	assert.True(t, termmap.IsMissingColumn(err))
}

func TestIndex_Match(t *testing.T) {
	conds := []queryir.ColumnEquals{{Child: "dept_id", Parent: "id"}}
	parent := testutil.Rows([]string{"id", "name"},
		[]any{"1", "Eng"},
		[]any{nil, "Ghost"},
		[]any{"2", "Ops"},
	)

	ix, err := NewIndex(parent, conds)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, conds, ix.Conditions())

	m, err := ix.Match(testutil.Row("dept_id", "2"))
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, parent[2], m[0])

	m, err = ix.Match(testutil.Row("dept_id", nil))
	require.NoError(t, err)
	assert.Empty(t, m)
}
