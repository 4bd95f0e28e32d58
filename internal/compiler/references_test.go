package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeReferences_NoCycle(t *testing.T) {
	spec, err := CompileString("person.cue", personDept)
	require.NoError(t, err)

	cycles := AnalyzeReferences(spec)
	assert.NotNil(t, cycles)
	assert.Empty(t, cycles)
}

func TestAnalyzeReferences_Nil(t *testing.T) {
	assert.Empty(t, AnalyzeReferences(nil))
}

func TestAnalyzeReferences_SelfReference(t *testing.T) {
	spec, err := CompileString("manager.cue", `
mapping: Employee: {
	logicalTable: tableName: "employee"
	subjectMap: template: "http://ex.org/emp/{id}"
	predicateObjectMap: [{
		predicate: "http://ex.org/manager"
		objectMap: {parentTriplesMap: "Employee", joinCondition: [{child: "manager_id", parent: "id"}]}
	}]
}`)
	require.NoError(t, err)

	cycles := AnalyzeReferences(spec)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"Employee", "Employee"}, cycles[0].Path)
	assert.Equal(t, "entity map Employee references itself", cycles[0].Message)
	assert.Equal(t, "info", cycles[0].Level)
}

func TestAnalyzeReferences_MutualReference(t *testing.T) {
	spec, err := CompileString("mutual.cue", `
mapping: Person: {
	logicalTable: tableName: "person"
	subjectMap: template: "http://ex.org/person/{id}"
	predicateObjectMap: [{
		predicate: "http://ex.org/dept"
		objectMap: {parentTriplesMap: "Dept", joinCondition: [{child: "dept_id", parent: "id"}]}
	}]
}
mapping: Dept: {
	logicalTable: tableName: "dept"
	subjectMap: template: "http://ex.org/dept/{id}"
	predicateObjectMap: [{
		predicate: "http://ex.org/head"
		objectMap: {parentTriplesMap: "Person", joinCondition: [{child: "head_id", parent: "id"}]}
	}]
}
mapping: Site: {
	logicalTable: tableName: "site"
	subjectMap: template: "http://ex.org/site/{id}"
	predicateObjectMap: [{
		predicate: "http://ex.org/dept"
		objectMap: {parentTriplesMap: "Dept", joinCondition: [{child: "dept_id", parent: "id"}]}
	}]
}`)
	require.NoError(t, err)

	cycles := AnalyzeReferences(spec)
	require.Len(t, cycles, 1, "Site references into the cycle but is not part of it")
	assert.Equal(t, []string{"Person", "Dept", "Person"}, cycles[0].Path)
	assert.Equal(t, "reference cycle: Person → Dept → Person", cycles[0].Message)
}

func TestAnalyzeReferences_Deterministic(t *testing.T) {
	src := `
mapping: A: {
	logicalTable: tableName: "t"
	subjectMap: template: "http://ex.org/a/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/b", objectMap: parentTriplesMap: "B"}]
}
mapping: B: {
	logicalTable: tableName: "t"
	subjectMap: template: "http://ex.org/b/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/c", objectMap: parentTriplesMap: "C"}]
}
mapping: C: {
	logicalTable: tableName: "t"
	subjectMap: template: "http://ex.org/c/{id}"
	predicateObjectMap: [{predicate: "http://ex.org/a", objectMap: parentTriplesMap: "A"}]
}`
	spec, err := CompileString("ring.cue", src)
	require.NoError(t, err)

	first := AnalyzeReferences(spec)
	require.Len(t, first, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, first[0].Path)
	for range 10 {
		assert.Equal(t, first, AnalyzeReferences(spec))
	}
}
