package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/testutil"
)

func TestCreateTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTable(ctx, "person", []string{"id", "name"}))
	require.NoError(t, s.CreateTable(ctx, "person", []string{"id", "name"}), "same columns is a no-op")

	err := s.CreateTable(ctx, "person", []string{"id"})
	assert.ErrorContains(t, err, "already exists")

	cols, err := s.TableColumns(ctx, "person")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	assert.Error(t, s.CreateTable(ctx, "", []string{"id"}))
	assert.Error(t, s.CreateTable(ctx, "empty", nil))
}

func TestTables_CreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.CreateTable(ctx, name, []string{"id"}))
	}
	names, err = s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestInsertRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "person", []string{"id", "name", "dept"}))

	rows := testutil.Rows([]string{"id", "name"},
		[]any{int64(7), "Ann"},
		[]any{"8", nil},
	)
	require.NoError(t, s.InsertRows(ctx, "person", rows))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM "person" WHERE dept IS NULL`).Scan(&count))
	assert.Equal(t, 2, count, "absent columns are stored as NULL")

	var typ string
	require.NoError(t, s.db.QueryRow(`SELECT typeof(id) FROM "person" WHERE name = 'Ann'`).Scan(&typ))
	assert.Equal(t, "text", typ, "values are stored lexically")
}

func TestInsertRows_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.InsertRows(ctx, "ghost", testutil.Rows([]string{"id"}, []any{"1"}))
	assert.ErrorContains(t, err, "not a fixture table")

	require.NoError(t, s.CreateTable(ctx, "person", []string{"id"}))
	err = s.InsertRows(ctx, "person", testutil.Rows([]string{"id", "extra"}, []any{"1", "x"}))
	assert.ErrorContains(t, err, `undeclared column "extra"`)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM "person"`).Scan(&count))
	assert.Equal(t, 0, count, "failed insert rolls back")
}

func TestLoadTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LoadTable(ctx, "person", append(
		testutil.Rows([]string{"id"}, []any{"1"}),
		testutil.Rows([]string{"id", "name"}, []any{"2", "Bob"})...,
	)))

	cols, err := s.TableColumns(ctx, "person")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
}

func TestExec(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx, `CREATE VIEW v AS SELECT 1 AS n`))
	assert.Error(t, s.Exec(ctx, `NOT SQL`))
}
