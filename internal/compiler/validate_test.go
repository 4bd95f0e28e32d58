package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	spec, err := CompileString("person.cue", personDept)
	require.NoError(t, err)

	findings := Validate(spec)
	assert.Empty(t, findings)
	assert.False(t, HasErrors(findings))
}

func TestValidate_Nil(t *testing.T) {
	assert.Empty(t, Validate(nil))
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		level string
		field string
	}{
		{
			name: "view is not portable",
			src: `mapping: V: {
				logicalTable: sqlQuery: "SELECT id FROM t"
				subjectMap: template: "http://ex.org/{id}"
				predicateObjectMap: [{predicate: "http://ex.org/p", objectMap: column: "id"}]
			}`,
			code:  ErrSourceNotPortable,
			level: LevelWarning,
			field: "V.logicalTable",
		},
		{
			name: "entity map emits nothing",
			src: `mapping: E: {
				logicalTable: tableName: "t"
				subjectMap: template: "http://ex.org/{id}"
			}`,
			code:  ErrEntityMapEmpty,
			level: LevelWarning,
			field: "E",
		},
		{
			name: "constant subject",
			src: `mapping: C: {
				logicalTable: tableName: "t"
				subject: "http://ex.org/thing"
				predicateObjectMap: [{predicate: "http://ex.org/p", objectMap: column: "id"}]
			}`,
			code:  ErrConstantSubject,
			level: LevelWarning,
			field: "C.subjectMap",
		},
		{
			name: "condition-less reference across tables",
			src: `mapping: A: {
				logicalTable: tableName: "a"
				subjectMap: template: "http://ex.org/a/{id}"
				predicateObjectMap: [{predicate: "http://ex.org/b", objectMap: parentTriplesMap: "B"}]
			}
			mapping: B: {
				logicalTable: tableName: "b"
				subjectMap: {template: "http://ex.org/b/{id}", class: "http://ex.org/B"}
			}`,
			code:  ErrReferenceTablesDiffer,
			level: LevelError,
			field: "A.predicateObjectMap[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := CompileString("lint.cue", tt.src)
			require.NoError(t, err)

			findings := Validate(spec)
			require.Len(t, findings, 1, "findings: %v", findings)
			assert.Equal(t, tt.code, findings[0].Code)
			assert.Equal(t, tt.level, findings[0].Level)
			assert.Equal(t, tt.field, findings[0].Field)
			assert.Equal(t, tt.level == LevelError, HasErrors(findings))
		})
	}
}

func TestValidate_SameTableReferenceWithoutConditions(t *testing.T) {
	spec, err := CompileString("self.cue", `
mapping: A: {
	logicalTable: tableName: "t"
	subjectMap: template: "http://ex.org/a/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/b", objectMap: parentTriplesMap: "B"}]
}
mapping: B: {
	logicalTable: tableName: "t"
	subjectMap: {template: "http://ex.org/b/{id}", class: "http://ex.org/B"}
}`)
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestValidate_UnknownSQLVersion(t *testing.T) {
	spec, err := CompileString("view.cue", `
mapping: V: {
	logicalTable: {sqlQuery: "SELECT 1 AS id", sqlVersion: "urn:dialect:mine"}
	subjectMap: template: "http://ex.org/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/p", objectMap: column: "id"}]
}`)
	require.NoError(t, err)

	findings := Validate(spec)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, ErrSourceNotPortable, f.Code)
	}
	assert.Contains(t, findings[1].Message, "urn:dialect:mine")
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "A.subjectMap", Message: "bad", Code: ErrConstantSubject}
	assert.Equal(t, "[E204] A.subjectMap: bad", e.Error())
}
