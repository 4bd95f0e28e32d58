package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/source"
	"github.com/roach88/tablegraph/internal/termmap"
)

func TestCodeOf(t *testing.T) {
	_, joinErr := mapping.BuildJoinedSource(mapping.MustTable("a"), mapping.MustTable("b"), nil)
	_, typeErr := termmap.Resolve(termmap.Column{Name: "x"}, ir.MustRecord(), nil)

	tests := []struct {
		name string
		err  error
		want ErrorCode
		is   func(error) bool
	}{
		{"missing column", termmap.MissingColumn("x"), ErrCodeMissingColumn, IsMissingColumn},
		{"invalid join", joinErr, ErrCodeInvalidJoin, IsInvalidJoin},
		{"undefined term type", typeErr, ErrCodeUndefinedTermType, IsUndefinedTermType},
		{"subject type", &ResolveError{Code: ErrCodeInvalidSubjectType}, ErrCodeInvalidSubjectType, IsInvalidSubjectType},
		{"predicate type", &ResolveError{Code: ErrCodeInvalidPredicateType}, ErrCodeInvalidPredicateType, IsInvalidPredicateType},
		{"source", source.Unavailable(nil, errors.New("down")), ErrCodeSourceUnavailable, IsSourceUnavailable},
		{"wrapped", fmt.Errorf("ctx: %w", termmap.MissingColumn("y")), ErrCodeMissingColumn, IsMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.want, CodeOf(tt.err))
			assert.True(t, tt.is(tt.err))
		})
	}

	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}

func TestNewResolveError(t *testing.T) {
	err := newResolveError("Person", 3, fmt.Errorf("pair 0 object: %w", termmap.MissingColumn("name")))

	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeMissingColumn, re.Code)
	assert.Equal(t, "Person", re.EntityMap)
	assert.Equal(t, 3, re.Row)
	assert.Equal(t, "name", re.Column)
	assert.True(t, termmap.IsMissingColumn(err), "inner error stays reachable")

	assert.Same(t, err, newResolveError("Other", 9, err), "already located")
	assert.Nil(t, newResolveError("Person", 0, nil))
}

func TestResolveError_Error(t *testing.T) {
	err := &ResolveError{Code: ErrCodeSourceUnavailable, EntityMap: "Dept", Row: -1, Err: errors.New("down")}
	assert.Equal(t, `SOURCE_UNAVAILABLE: entity map "Dept": down`, err.Error())
}

func TestIsAbort(t *testing.T) {
	assert.True(t, isAbort(source.Unavailable(nil, errors.New("down"))))
	assert.True(t, isAbort(&RowLimitError{}))
	assert.False(t, isAbort(termmap.MissingColumn("x")))
}
