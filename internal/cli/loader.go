package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tablegraph/internal/compiler"
	"github.com/roach88/tablegraph/internal/mapping"
)

// LoadResult contains a compiled mapping and where it came from.
type LoadResult struct {
	Spec      *mapping.Spec
	FileCount int // Number of CUE files read
}

// LoadError represents an error that occurred while loading a mapping.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error     // compiler error, if any
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Line returns the CUE line of the error, or 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadMapping loads and compiles a mapping from a single .cue file or a
// directory of them. A directory is loaded as one CUE instance, so the
// `mapping` struct may be split across files.
func LoadMapping(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mapping not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing mapping: %v", err)}
	}

	if !info.IsDir() {
		return loadMappingFile(path)
	}
	return loadMappingDir(path)
}

func loadMappingFile(path string) (*LoadResult, error) {
	if filepath.Ext(path) != ".cue" {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	spec, err := compiler.CompileString(path, string(src))
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Spec: spec, FileCount: 1}, nil
}

func loadMappingDir(dir string) (*LoadResult, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	spec, err := compiler.CompileMapping(value.LookupPath(cue.ParsePath("mapping")))
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Spec: spec, FileCount: len(cueFiles)}, nil
}

// FindCUEFiles returns the .cue files directly inside dir. Subdirectories
// are separate CUE packages and are not loaded.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
			Err:     err,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Mapping structure errors
	ErrCodeMapping      = "E101" // Missing or empty mapping struct
	ErrCodeLogicalTable = "E102" // Invalid logicalTable
	ErrCodeSubjectMap   = "E103" // Invalid subjectMap
	ErrCodePredicateMap = "E104" // Invalid predicate or predicateMap
	ErrCodeObjectMap    = "E105" // Invalid objectMap
	ErrCodeJoin         = "E106" // Invalid parentTriplesMap or joinCondition
	ErrCodeTermType     = "E110" // Unknown or disallowed termType
	ErrCodeTemplate     = "E111" // Malformed template
	ErrCodeSyntax       = "E112" // CUE syntax or evaluation error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields are dotted paths such as "predicateObjectMap[1].objectMap.template".
func MapFieldToErrorCode(field string) string {
	last := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		last = field[i+1:]
	}

	switch {
	case field == "cue":
		return ErrCodeSyntax
	case field == "mapping":
		return ErrCodeMapping
	case last == "termType":
		return ErrCodeTermType
	case last == "template":
		return ErrCodeTemplate
	case strings.Contains(field, "joinCondition"), strings.HasSuffix(field, "parentTriplesMap"):
		return ErrCodeJoin
	case strings.HasPrefix(field, "logicalTable"):
		return ErrCodeLogicalTable
	case strings.HasPrefix(field, "subject"):
		return ErrCodeSubjectMap
	case strings.Contains(field, "objectMap"), strings.HasSuffix(field, ".object"):
		return ErrCodeObjectMap
	case strings.HasPrefix(field, "predicateObjectMap"):
		return ErrCodePredicateMap
	default:
		return ErrCodeGeneric
	}
}
