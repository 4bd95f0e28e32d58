package compiler

import (
	"fmt"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/queryir"
)

// Validation codes (E200-E299)
const (
	ErrSourceInvalid         = "E201" // queryir rejects the source
	ErrSourceNotPortable     = "E202" // source runs on the SQL backend only
	ErrEntityMapEmpty        = "E203" // no classes and no pairs: emits nothing
	ErrConstantSubject       = "E204" // every row maps to the same subject
	ErrReferenceTablesDiffer = "E205" // condition-less reference across logical tables
	ErrJoinInvalid           = "E206" // joined source rejected by queryir
)

// Validation levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// ValidationError represents a mapping lint finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Level   string `json:"level"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled mapping for problems construction does not
// catch. Returns all findings (does not fail-fast), in entity map order.
func Validate(spec *mapping.Spec) []ValidationError {
	var errs []ValidationError
	if spec == nil {
		return errs
	}
	for _, em := range spec.EntityMaps() {
		errs = append(errs, validateEntityMap(spec, em)...)
	}
	return errs
}

// HasErrors reports whether any finding is at error level.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}

func validateEntityMap(spec *mapping.Spec, em *mapping.EntityMap) []ValidationError {
	var errs []ValidationError
	id := em.ID()

	// E201/E202: logical table
	res := queryir.Validate(em.Source().Query())
	for _, msg := range res.Errors {
		errs = append(errs, ValidationError{
			Field:   id + ".logicalTable",
			Message: msg,
			Code:    ErrSourceInvalid,
			Level:   LevelError,
		})
	}
	for _, msg := range res.Warnings {
		errs = append(errs, ValidationError{
			Field:   id + ".logicalTable",
			Message: msg,
			Code:    ErrSourceNotPortable,
			Level:   LevelWarning,
		})
	}

	// E203: nothing to emit
	if len(em.Subject().Classes()) == 0 && em.NumPairs() == 0 {
		errs = append(errs, ValidationError{
			Field:   id,
			Message: "entity map has no classes and no predicate-object maps and emits nothing",
			Code:    ErrEntityMapEmpty,
			Level:   LevelWarning,
		})
	}

	// E204: subject without column references
	if len(em.Subject().Definition().Columns()) == 0 {
		errs = append(errs, ValidationError{
			Field:   id + ".subjectMap",
			Message: "subject references no columns; every row maps to the same subject",
			Code:    ErrConstantSubject,
			Level:   LevelWarning,
		})
	}

	for _, ref := range spec.References(id) {
		field := fmt.Sprintf("%s.predicateObjectMap[%d]", id, ref.Pair)

		// E205: R2RML allows condition-less references only within one logical table
		if ref.Joined == nil {
			if ref.Parent.Source().ID() != em.Source().ID() {
				msg := fmt.Sprintf("reference to %s has no joinCondition but the two entity maps use different logical tables",
					ref.Parent.ID())
				errs = append(errs, ValidationError{
					Field:   field,
					Message: msg,
					Code:    ErrReferenceTablesDiffer,
					Level:   LevelError,
				})
			}
			continue
		}

		// E206: joined source
		for _, msg := range queryir.Validate(ref.Joined.Query()).Errors {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: msg,
				Code:    ErrJoinInvalid,
				Level:   LevelError,
			})
		}
	}
	return errs
}
