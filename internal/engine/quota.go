package engine

import (
	"errors"
	"fmt"
)

// RowQuota counts the rows pulled for one entity map and enforces the
// WithMaxRows limit.
//
// Each ResolveEntity call gets its own RowQuota. The quota is checked as
// each row is pulled from the source, before it is resolved, so a limit of
// n resolves at most n rows. A limit of zero or less disables the check.
//
// Thread-safety: safe for concurrent use.
type RowQuota struct {
	maxRows int
	rows    Counter
}

// NewRowQuota creates a quota allowing maxRows rows.
func NewRowQuota(maxRows int) *RowQuota {
	return &RowQuota{maxRows: maxRows}
}

// Check counts one row and validates it against the limit.
//
// Returns RowLimitError once the count exceeds the limit. Exceeding the
// limit terminates the entity map; it is never treated as a skippable
// row error.
func (q *RowQuota) Check(entityMap string) error {
	n := q.rows.Inc()
	if q.maxRows > 0 && n > int64(q.maxRows) {
		return &RowLimitError{
			EntityMap: entityMap,
			Rows:      int(n),
			Limit:     q.maxRows,
		}
	}
	return nil
}

// Current returns the number of rows counted so far.
func (q *RowQuota) Current() int {
	return int(q.rows.Load())
}

// MaxRows returns the limit.
func (q *RowQuota) MaxRows() int {
	return q.maxRows
}

// RowLimitError is returned when an entity map exceeds its row limit.
type RowLimitError struct {
	EntityMap string // The entity map that exceeded the limit
	Rows      int    // Rows pulled, including the rejected one
	Limit     int    // Maximum allowed rows
}

// Error implements the error interface.
func (e *RowLimitError) Error() string {
	return fmt.Sprintf("entity map %s exceeded max rows: %d rows > %d limit",
		e.EntityMap, e.Rows, e.Limit)
}

// ErrorCode returns ROW_LIMIT_EXCEEDED.
func (e *RowLimitError) ErrorCode() string {
	return string(ErrCodeRowLimitExceeded)
}

// IsRowLimitError returns true if the error is a RowLimitError.
// Uses errors.As to handle wrapped errors.
func IsRowLimitError(err error) bool {
	var le *RowLimitError
	return errors.As(err, &le)
}
