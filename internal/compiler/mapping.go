package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/termmap"
)

// CompileString compiles CUE source holding a top-level `mapping` struct.
// filename is used for error positions only.
func CompileString(filename, src string) (*mapping.Spec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileMapping(v.LookupPath(cue.ParsePath("mapping")))
}

// CompileMapping parses the `mapping` struct: one field per entity map,
// keyed by entity map ID. Entity maps keep their declaration order.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`mapping: Person: { ... }`)
//	spec, err := CompileMapping(v.LookupPath(cue.ParsePath("mapping")))
func CompileMapping(v cue.Value) (*mapping.Spec, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "mapping",
			Message: "mapping is required",
			Pos:     v.Pos(),
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var maps []*mapping.EntityMap
	for iter.Next() {
		em, err := CompileEntityMap(iter.Value())
		if err != nil {
			return nil, err
		}
		maps = append(maps, em)
	}
	if len(maps) == 0 {
		return nil, &CompileError{
			Field:   "mapping",
			Message: "at least one entity map is required",
			Pos:     v.Pos(),
		}
	}

	spec, err := mapping.NewSpec(maps...)
	if err != nil {
		return nil, &CompileError{Field: "mapping", Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return spec, nil
}

// CompileEntityMap parses one entity map. Its ID is the struct label.
func CompileEntityMap(v cue.Value) (*mapping.EntityMap, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var id string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		id = unquote(sels[len(sels)-1].String())
	}

	src, err := parseLogicalTable(v)
	if err != nil {
		return nil, err
	}
	subject, err := parseSubject(v)
	if err != nil {
		return nil, err
	}
	pairs, err := parsePredicateObjectMaps(v)
	if err != nil {
		return nil, err
	}

	em, err := mapping.NewEntityMap(id, src, subject, pairs...)
	if err != nil {
		return nil, &CompileError{Field: id, Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return em, nil
}

// parseLogicalTable reads logicalTable: {tableName} or {sqlQuery, sqlVersion}.
func parseLogicalTable(v cue.Value) (*mapping.Source, error) {
	lt := v.LookupPath(cue.ParsePath("logicalTable"))
	if !lt.Exists() {
		return nil, &CompileError{
			Field:   "logicalTable",
			Message: "logicalTable is required",
			Pos:     v.Pos(),
		}
	}

	table, hasTable, err := optionalString(lt, "tableName")
	if err != nil {
		return nil, err
	}
	query, hasQuery, err := optionalString(lt, "sqlQuery")
	if err != nil {
		return nil, err
	}
	version, _, err := optionalString(lt, "sqlVersion")
	if err != nil {
		return nil, err
	}

	var src *mapping.Source
	switch {
	case hasTable && hasQuery:
		return nil, &CompileError{
			Field:   "logicalTable",
			Message: "tableName and sqlQuery are mutually exclusive",
			Pos:     lt.Pos(),
		}
	case hasTable:
		src, err = mapping.NewTable(table)
	case hasQuery:
		src, err = mapping.NewView(query, version)
	default:
		return nil, &CompileError{
			Field:   "logicalTable",
			Message: "one of tableName or sqlQuery is required",
			Pos:     lt.Pos(),
		}
	}
	if err != nil {
		return nil, &CompileError{Field: "logicalTable", Message: err.Error(), Pos: lt.Pos(), Err: err}
	}
	return src, nil
}

// parseSubject reads subjectMap, or the `subject` constant shortcut.
func parseSubject(v cue.Value) (mapping.SubjectMap, error) {
	if iri, ok, err := optionalString(v, "subject"); err != nil {
		return mapping.SubjectMap{}, err
	} else if ok {
		sm, err := mapping.NewSubjectMap(termmap.Constant{Term: rdf.NewIRI(iri)})
		if err != nil {
			return mapping.SubjectMap{}, &CompileError{Field: "subject", Message: err.Error(), Pos: v.Pos(), Err: err}
		}
		return sm, nil
	}

	sv := v.LookupPath(cue.ParsePath("subjectMap"))
	if !sv.Exists() {
		return mapping.SubjectMap{}, &CompileError{
			Field:   "subjectMap",
			Message: "subjectMap is required",
			Pos:     v.Pos(),
		}
	}
	def, err := parseTermMap(sv, "subjectMap", termmap.IRI)
	if err != nil {
		return mapping.SubjectMap{}, err
	}
	classes, err := stringOrList(sv, "class")
	if err != nil {
		return mapping.SubjectMap{}, err
	}
	iris := make([]rdf.IRI, len(classes))
	for i, c := range classes {
		iris[i] = rdf.NewIRI(c)
	}

	sm, err := mapping.NewSubjectMap(def, iris...)
	if err != nil {
		return mapping.SubjectMap{}, &CompileError{Field: "subjectMap", Message: err.Error(), Pos: sv.Pos(), Err: err}
	}
	return sm, nil
}

// parsePredicateObjectMaps reads predicateObjectMap entries. An entry with
// several predicates or objects yields every (predicate, object)
// combination, predicates outermost.
func parsePredicateObjectMaps(v cue.Value) ([]mapping.PredicateObjectPair, error) {
	pv := v.LookupPath(cue.ParsePath("predicateObjectMap"))
	if !pv.Exists() {
		return nil, nil // predicateObjectMap is optional
	}

	iter, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var pairs []mapping.PredicateObjectPair
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("predicateObjectMap[%d]", i)
		pom := iter.Value()

		preds, err := parsePredicates(pom, field)
		if err != nil {
			return nil, err
		}
		objs, err := parseObjects(pom, field)
		if err != nil {
			return nil, err
		}
		for _, p := range preds {
			for _, o := range objs {
				pairs = append(pairs, mapping.Pair(p, o))
			}
		}
	}
	return pairs, nil
}

func parsePredicates(pom cue.Value, field string) ([]mapping.PredicateMap, error) {
	var out []mapping.PredicateMap

	shortcuts, err := stringOrList(pom, "predicate")
	if err != nil {
		return nil, err
	}
	for _, iri := range shortcuts {
		out = append(out, mapping.Predicate(iri))
	}

	err = structOrList(pom, "predicateMap", func(pm cue.Value) error {
		def, err := parseTermMap(pm, field+".predicateMap", termmap.IRI)
		if err != nil {
			return err
		}
		m, err := mapping.NewPredicateMap(def)
		if err != nil {
			return &CompileError{Field: field + ".predicateMap", Message: err.Error(), Pos: pm.Pos(), Err: err}
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, &CompileError{
			Field:   field,
			Message: "predicate or predicateMap is required",
			Pos:     pom.Pos(),
		}
	}
	return out, nil
}

func parseObjects(pom cue.Value, field string) ([]mapping.ObjectMap, error) {
	var out []mapping.ObjectMap

	shortcuts, err := stringOrList(pom, "object")
	if err != nil {
		return nil, err
	}
	for _, iri := range shortcuts {
		o, err := mapping.NewObjectMap(termmap.Constant{Term: rdf.NewIRI(iri)})
		if err != nil {
			return nil, &CompileError{Field: field + ".object", Message: err.Error(), Pos: pom.Pos(), Err: err}
		}
		out = append(out, o)
	}

	err = structOrList(pom, "objectMap", func(om cue.Value) error {
		o, err := parseObjectMap(om, field+".objectMap")
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, &CompileError{
			Field:   field,
			Message: "object or objectMap is required",
			Pos:     pom.Pos(),
		}
	}
	return out, nil
}

// parseObjectMap reads a term-valued or referencing object map.
func parseObjectMap(om cue.Value, field string) (mapping.ObjectMap, error) {
	parent, isRef, err := optionalString(om, "parentTriplesMap")
	if err != nil {
		return mapping.ObjectMap{}, err
	}
	if !isRef {
		def, err := parseTermMap(om, field, objectDefaultType(om))
		if err != nil {
			return mapping.ObjectMap{}, err
		}
		o, err := mapping.NewObjectMap(def)
		if err != nil {
			return mapping.ObjectMap{}, &CompileError{Field: field, Message: err.Error(), Pos: om.Pos(), Err: err}
		}
		return o, nil
	}

	var conds []mapping.JoinCondition
	jc := om.LookupPath(cue.ParsePath("joinCondition"))
	if jc.Exists() {
		iter, err := jc.List()
		if err != nil {
			return mapping.ObjectMap{}, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			cf := fmt.Sprintf("%s.joinCondition[%d]", field, i)
			child, err := requiredString(iter.Value(), "child", cf)
			if err != nil {
				return mapping.ObjectMap{}, err
			}
			parentCol, err := requiredString(iter.Value(), "parent", cf)
			if err != nil {
				return mapping.ObjectMap{}, err
			}
			conds = append(conds, mapping.JoinCondition{Child: child, Parent: parentCol})
		}
	}

	o, err := mapping.NewReferencingObjectMap(parent, conds...)
	if err != nil {
		return mapping.ObjectMap{}, &CompileError{Field: field, Message: err.Error(), Pos: om.Pos(), Err: err}
	}
	return o, nil
}

// objectDefaultType applies the R2RML defaults for object maps: literal
// when the map has a column, a datatype or a language, IRI otherwise.
func objectDefaultType(om cue.Value) termmap.TermType {
	for _, key := range []string{"column", "datatype", "language"} {
		if om.LookupPath(cue.ParsePath(key)).Exists() {
			return termmap.Literal
		}
	}
	return termmap.IRI
}

// parseTermMap reads exactly one of constant, template or column, plus
// termType, datatype and language.
func parseTermMap(v cue.Value, field string, defaultType termmap.TermType) (termmap.Definition, error) {
	typ := defaultType
	if s, ok, err := optionalString(v, "termType"); err != nil {
		return nil, err
	} else if ok {
		typ, err = termmap.ParseTermType(s)
		if err != nil {
			return nil, &CompileError{Field: field + ".termType", Message: err.Error(), Pos: v.Pos()}
		}
	}

	datatype, hasDatatype, err := optionalString(v, "datatype")
	if err != nil {
		return nil, err
	}
	lang, hasLang, err := optionalString(v, "language")
	if err != nil {
		return nil, err
	}
	if hasDatatype && hasLang {
		return nil, &CompileError{
			Field:   field,
			Message: "datatype and language are mutually exclusive",
			Pos:     v.Pos(),
		}
	}
	if (hasDatatype || hasLang) && typ != termmap.Literal {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("datatype and language require termType literal, got %s", typ),
			Pos:     v.Pos(),
		}
	}

	constant, hasConstant, err := optionalString(v, "constant")
	if err != nil {
		return nil, err
	}
	pattern, hasTemplate, err := optionalString(v, "template")
	if err != nil {
		return nil, err
	}
	column, hasColumn, err := optionalString(v, "column")
	if err != nil {
		return nil, err
	}

	n := 0
	for _, has := range []bool{hasConstant, hasTemplate, hasColumn} {
		if has {
			n++
		}
	}
	if n != 1 {
		return nil, &CompileError{
			Field:   field,
			Message: "exactly one of constant, template or column is required",
			Pos:     v.Pos(),
		}
	}

	dt := rdf.IRI{}
	if hasDatatype {
		dt = rdf.NewIRI(datatype)
	}

	switch {
	case hasConstant:
		return constantDefinition(constant, typ, dt, lang, field, v.Pos())
	case hasTemplate:
		t, err := termmap.NewTemplate(pattern, typ)
		if err != nil {
			return nil, &CompileError{Field: field + ".template", Message: err.Error(), Pos: v.Pos(), Err: err}
		}
		if hasDatatype {
			t = t.WithDatatype(dt)
		}
		if hasLang {
			t = t.WithLang(lang)
		}
		return t, nil
	default:
		return termmap.Column{Name: column, Type: typ, Datatype: dt, Lang: lang}, nil
	}
}

func constantDefinition(value string, typ termmap.TermType, dt rdf.IRI, lang, field string, pos token.Pos) (termmap.Definition, error) {
	switch typ {
	case termmap.IRI:
		return termmap.Constant{Term: rdf.NewIRI(value)}, nil
	case termmap.Literal:
		switch {
		case lang != "":
			return termmap.Constant{Term: rdf.NewLangLiteral(value, lang)}, nil
		case dt.Value != "":
			return termmap.Constant{Term: rdf.NewTypedLiteral(value, dt)}, nil
		default:
			return termmap.Constant{Term: rdf.NewLiteral(value)}, nil
		}
	default:
		return nil, &CompileError{
			Field:   field + ".constant",
			Message: fmt.Sprintf("constant cannot have termType %s", typ),
			Pos:     pos,
		}
	}
}

// optionalString returns the string at key, and whether it exists.
func optionalString(v cue.Value, key string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func requiredString(v cue.Value, key, field string) (string, error) {
	s, ok, err := optionalString(v, key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

// stringOrList reads key as a single string or a list of strings.
func stringOrList(v cue.Value, key string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return nil, nil
	}
	if s, err := f.String(); err == nil {
		return []string{s}, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{
			Field:   key,
			Message: "must be a string or a list of strings",
			Pos:     f.Pos(),
		}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// structOrList calls fn for key when it is a struct, or for each element
// when it is a list.
func structOrList(v cue.Value, key string, fn func(cue.Value) error) error {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return nil
	}
	if f.IncompleteKind() != cue.ListKind {
		return fn(f)
	}
	iter, err := f.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func unquote(label string) string {
	if len(label) >= 2 && label[0] == '"' && label[len(label)-1] == '"' {
		return label[1 : len(label)-1]
	}
	return label
}

// CompileError represents a compilation error with source position.
// Err holds the underlying mapping error, if any.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying mapping error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
