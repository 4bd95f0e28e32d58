package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowQuota_WithinLimit(t *testing.T) {
	q := NewRowQuota(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("Person"), "row %d should be allowed", i)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxRows())
}

func TestRowQuota_ExceedsLimit(t *testing.T) {
	q := NewRowQuota(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check("Person"))
	}

	err := q.Check("Person")
	require.Error(t, err)

	var le *RowLimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Person", le.EntityMap)
	assert.Equal(t, 4, le.Rows)
	assert.Equal(t, 3, le.Limit)

	assert.True(t, IsRowLimitError(err))
	assert.True(t, IsRowLimitExceeded(err))
	assert.Equal(t, ErrCodeRowLimitExceeded, CodeOf(err))
}

func TestRowQuota_Unlimited(t *testing.T) {
	for _, limit := range []int{0, -1} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			q := NewRowQuota(limit)
			for i := 0; i < 1000; i++ {
				require.NoError(t, q.Check("Person"))
			}
			assert.Equal(t, 1000, q.Current())
		})
	}
}

func TestRowLimitError_Error(t *testing.T) {
	err := &RowLimitError{EntityMap: "Dept", Rows: 101, Limit: 100}

	msg := err.Error()
	assert.Contains(t, msg, "Dept")
	assert.Contains(t, msg, "101")
	assert.Contains(t, msg, "100")
}

func TestIsRowLimitError_Wrapped(t *testing.T) {
	inner := &RowLimitError{EntityMap: "Dept", Rows: 2, Limit: 1}
	wrapped := fmt.Errorf("resolving: %w", inner)

	assert.True(t, IsRowLimitError(wrapped))
	assert.False(t, IsRowLimitError(fmt.Errorf("other")))
}
