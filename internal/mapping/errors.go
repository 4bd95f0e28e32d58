package mapping

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes mapping construction errors.
type ErrorCode string

const (
	// ErrCodeInvalidJoin indicates a joined source built from no conditions.
	ErrCodeInvalidJoin ErrorCode = "INVALID_JOIN"

	// ErrCodeInvalidSubjectType indicates a subject map producing literals.
	ErrCodeInvalidSubjectType ErrorCode = "INVALID_SUBJECT_TYPE"

	// ErrCodeInvalidPredicateType indicates a predicate map producing non-IRIs.
	ErrCodeInvalidPredicateType ErrorCode = "INVALID_PREDICATE_TYPE"

	// ErrCodeUndefinedTermType indicates a definition without a term type.
	ErrCodeUndefinedTermType ErrorCode = "UNDEFINED_TERM_TYPE"

	// ErrCodeInvalidSource indicates an unnamed table or empty view.
	ErrCodeInvalidSource ErrorCode = "INVALID_SOURCE"

	// ErrCodeUnknownParent indicates a referencing object map whose parent
	// entity map does not exist.
	ErrCodeUnknownParent ErrorCode = "UNKNOWN_PARENT"

	// ErrCodeDuplicateEntityMap indicates two entity maps sharing an ID.
	ErrCodeDuplicateEntityMap ErrorCode = "DUPLICATE_ENTITY_MAP"
)

// Error is a mapping construction failure.
type Error struct {
	Code ErrorCode

	// EntityMap identifies the affected entity map, when known.
	EntityMap string

	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EntityMap != "" {
		return fmt.Sprintf("%s: %s (entity_map=%s)", e.Code, e.Message, e.EntityMap)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code as a plain string.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withEntityMap annotates a mapping error with the entity map ID.
// Other errors are wrapped unchanged.
func withEntityMap(err error, id string) error {
	var e *Error
	if errors.As(err, &e) && e.EntityMap == "" {
		annotated := *e
		annotated.EntityMap = id
		return &annotated
	}
	return fmt.Errorf("entity map %s: %w", id, err)
}

// IsInvalidJoin reports whether err is an INVALID_JOIN error.
func IsInvalidJoin(err error) bool {
	return hasCode(err, ErrCodeInvalidJoin)
}

// IsInvalidSubjectType reports whether err is an INVALID_SUBJECT_TYPE error.
func IsInvalidSubjectType(err error) bool {
	return hasCode(err, ErrCodeInvalidSubjectType)
}

// IsInvalidPredicateType reports whether err is an INVALID_PREDICATE_TYPE error.
func IsInvalidPredicateType(err error) bool {
	return hasCode(err, ErrCodeInvalidPredicateType)
}

// IsUnknownParent reports whether err is an UNKNOWN_PARENT error.
func IsUnknownParent(err error) bool {
	return hasCode(err, ErrCodeUnknownParent)
}

// IsDuplicateEntityMap reports whether err is a DUPLICATE_ENTITY_MAP error.
func IsDuplicateEntityMap(err error) bool {
	return hasCode(err, ErrCodeDuplicateEntityMap)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
