// Package source defines how the engine obtains rows: the DataSource
// contract, its errors, and an in-memory implementation used by tests and
// scenario fixtures.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/mapping"
)

// RowIter is a lazy, finite sequence of records.
//
// Next returns (record, true, nil) for each row, then (zero, false, nil)
// once exhausted. Callers must Close the iterator.
type RowIter interface {
	Next(ctx context.Context) (ir.Record, bool, error)
	Close() error
}

// DataSource yields the rows of an entity source. Every call to Rows
// starts a fresh iteration from the first row.
type DataSource interface {
	Rows(ctx context.Context, src *mapping.Source) (RowIter, error)
}

// Func adapts a function to the DataSource interface.
type Func func(ctx context.Context, src *mapping.Source) (RowIter, error)

// Rows implements DataSource.
func (f Func) Rows(ctx context.Context, src *mapping.Source) (RowIter, error) {
	return f(ctx, src)
}

// ErrCodeSourceUnavailable is the code reported by UnavailableError.
const ErrCodeSourceUnavailable = "SOURCE_UNAVAILABLE"

// UnavailableError reports that a data source could not produce rows.
// Err is the collaborator's error, unmodified.
type UnavailableError struct {
	// Source describes the entity source (see mapping.Source.String).
	Source string
	Err    error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCodeSourceUnavailable, e.Source, e.Err)
}

// Unwrap returns the collaborator's error.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ErrorCode returns SOURCE_UNAVAILABLE.
func (e *UnavailableError) ErrorCode() string {
	return ErrCodeSourceUnavailable
}

// Unavailable wraps err as an UnavailableError for src. Errors that are
// already UnavailableErrors are returned as is.
func Unavailable(src *mapping.Source, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	name := "<nil source>"
	if src != nil {
		name = src.String()
	}
	return &UnavailableError{Source: name, Err: err}
}

// IsSourceUnavailable reports whether err is an UnavailableError.
func IsSourceUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// SliceIter iterates over an in-memory slice of records.
type SliceIter struct {
	rows []ir.Record
	pos  int
}

// NewSliceIter returns an iterator over rows. The slice is not copied.
func NewSliceIter(rows []ir.Record) *SliceIter {
	return &SliceIter{rows: rows}
}

// Next implements RowIter.
func (it *SliceIter) Next(ctx context.Context) (ir.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return ir.Record{}, false, err
	}
	if it.pos >= len(it.rows) {
		return ir.Record{}, false, nil
	}
	rec := it.rows[it.pos]
	it.pos++
	return rec, true, nil
}

// Close implements RowIter.
func (it *SliceIter) Close() error {
	it.pos = len(it.rows)
	return nil
}

// Collect drains and closes it.
func Collect(ctx context.Context, it RowIter) (rows []ir.Record, err error) {
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()
	for {
		rec, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, rec)
	}
}
