package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/source"
	"github.com/roach88/tablegraph/internal/termmap"
)

// ErrorCode categorizes resolution errors.
//
// Codes are shared with the packages that detect them (termmap, mapping,
// source) so a caller can classify any error the engine returns with the
// Is<Kind> helpers below.
type ErrorCode string

const (
	ErrCodeMissingColumn        ErrorCode = ErrorCode(termmap.ErrCodeMissingColumn)
	ErrCodeUndefinedTermType    ErrorCode = ErrorCode(termmap.ErrCodeUndefinedTermType)
	ErrCodeInvalidTemplate      ErrorCode = ErrorCode(termmap.ErrCodeInvalidTemplate)
	ErrCodeInvalidSubjectType   ErrorCode = ErrorCode(mapping.ErrCodeInvalidSubjectType)
	ErrCodeInvalidPredicateType ErrorCode = ErrorCode(mapping.ErrCodeInvalidPredicateType)
	ErrCodeInvalidJoin          ErrorCode = ErrorCode(mapping.ErrCodeInvalidJoin)
	ErrCodeSourceUnavailable    ErrorCode = ErrorCode(source.ErrCodeSourceUnavailable)

	// ErrCodeRowLimitExceeded indicates an entity map produced more rows
	// than WithMaxRows allows.
	ErrCodeRowLimitExceeded ErrorCode = "ROW_LIMIT_EXCEEDED"

	// ErrCodeInternal is reported for errors carrying no code.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// coded is implemented by every typed error in the module.
type coded interface {
	ErrorCode() string
}

// CodeOf returns the code of the first coded error in err's chain, or
// ErrCodeInternal when there is none. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c coded
	if errors.As(err, &c) {
		return ErrorCode(c.ErrorCode())
	}
	return ErrCodeInternal
}

// ResolveError locates a failure within a resolution run.
type ResolveError struct {
	// Code identifies the error category.
	Code ErrorCode

	// EntityMap is the ID of the entity map being resolved.
	EntityMap string

	// Row is the zero-based index of the failing row, or -1 when the
	// failure is not tied to a row (for example an unavailable source).
	Row int

	// Column names the offending column, if any.
	Column string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("%s: entity map %q", e.Code, e.EntityMap)
	if e.Row >= 0 {
		msg += fmt.Sprintf(", row %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(", column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error's code.
func (e *ResolveError) ErrorCode() string {
	return string(e.Code)
}

// newResolveError wraps err with its location. The code is taken from
// err's chain; an existing ResolveError is returned unchanged.
func newResolveError(emID string, row int, err error) error {
	if err == nil {
		return nil
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return err
	}
	out := &ResolveError{
		Code:      CodeOf(err),
		EntityMap: emID,
		Row:       row,
		Err:       err,
	}
	var te *termmap.Error
	if errors.As(err, &te) {
		out.Column = te.Column
	}
	return out
}

// IsMissingColumn reports whether err is a MISSING_COLUMN error.
func IsMissingColumn(err error) bool {
	return CodeOf(err) == ErrCodeMissingColumn
}

// IsInvalidSubjectType reports whether err is an INVALID_SUBJECT_TYPE error.
func IsInvalidSubjectType(err error) bool {
	return CodeOf(err) == ErrCodeInvalidSubjectType
}

// IsInvalidPredicateType reports whether err is an INVALID_PREDICATE_TYPE error.
func IsInvalidPredicateType(err error) bool {
	return CodeOf(err) == ErrCodeInvalidPredicateType
}

// IsInvalidJoin reports whether err is an INVALID_JOIN error.
func IsInvalidJoin(err error) bool {
	return CodeOf(err) == ErrCodeInvalidJoin
}

// IsUndefinedTermType reports whether err is an UNDEFINED_TERM_TYPE error.
func IsUndefinedTermType(err error) bool {
	return CodeOf(err) == ErrCodeUndefinedTermType
}

// IsSourceUnavailable reports whether err is a SOURCE_UNAVAILABLE error.
// errors.Unwrap on the inner source.UnavailableError yields the data
// source's own error.
func IsSourceUnavailable(err error) bool {
	return source.IsSourceUnavailable(err)
}

// IsRowLimitExceeded reports whether err is a ROW_LIMIT_EXCEEDED error.
func IsRowLimitExceeded(err error) bool {
	return CodeOf(err) == ErrCodeRowLimitExceeded
}
