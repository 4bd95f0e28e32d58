package termmap

import (
	"errors"
	"fmt"
)

// ErrNullValue is returned when a referenced column is present but NULL.
// No term is generated for it.
var ErrNullValue = errors.New("referenced column is null")

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeMissingColumn indicates a definition referenced an absent column.
	ErrCodeMissingColumn ErrorCode = "MISSING_COLUMN"

	// ErrCodeUndefinedTermType indicates a Template or Column without a term type.
	ErrCodeUndefinedTermType ErrorCode = "UNDEFINED_TERM_TYPE"

	// ErrCodeInvalidTemplate indicates a malformed template pattern.
	ErrCodeInvalidTemplate ErrorCode = "INVALID_TEMPLATE"
)

// Error is a term resolution failure.
type Error struct {
	Code ErrorCode

	// Column names the offending column, when there is one.
	Column string

	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code as a plain string.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// MissingColumn returns a MISSING_COLUMN error for name.
func MissingColumn(name string) *Error {
	return &Error{
		Code:    ErrCodeMissingColumn,
		Column:  name,
		Message: "column not found in record",
	}
}

func undefinedTermType(def Definition) *Error {
	return &Error{
		Code:    ErrCodeUndefinedTermType,
		Message: fmt.Sprintf("term type not set on %s", def.Key()),
	}
}

// IsMissingColumn reports whether err is a MISSING_COLUMN error.
func IsMissingColumn(err error) bool {
	return hasCode(err, ErrCodeMissingColumn)
}

// IsUndefinedTermType reports whether err is an UNDEFINED_TERM_TYPE error.
func IsUndefinedTermType(err error) bool {
	return hasCode(err, ErrCodeUndefinedTermType)
}

// IsInvalidTemplate reports whether err is an INVALID_TEMPLATE error.
func IsInvalidTemplate(err error) bool {
	return hasCode(err, ErrCodeInvalidTemplate)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
