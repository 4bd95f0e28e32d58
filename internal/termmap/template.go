package termmap

import (
	"fmt"
	"strings"
)

// segment is one piece of a parsed template: literal text or a column
// placeholder.
type segment struct {
	text     string
	isColumn bool
}

// Pattern is a parsed template.
type Pattern struct {
	source   string
	segments []segment
}

// ParseTemplate parses a template pattern.
//
// Placeholders are written {column}. A backslash escapes a brace or
// another backslash: `\{` is a literal "{". Unbalanced braces and empty
// placeholders fail with INVALID_TEMPLATE.
func ParseTemplate(pattern string) (Pattern, error) {
	p := Pattern{source: pattern}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) && strings.ContainsRune(`{}\`, runes[i+1]) {
				i++
				lit.WriteRune(runes[i])
				continue
			}
			lit.WriteRune(r)
		case '{':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '{' {
					return Pattern{}, invalidTemplate(pattern, fmt.Sprintf("nested '{' at offset %d", j))
				}
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return Pattern{}, invalidTemplate(pattern, fmt.Sprintf("unterminated '{' at offset %d", i))
			}
			name := string(runes[i+1 : end])
			if name == "" {
				return Pattern{}, invalidTemplate(pattern, fmt.Sprintf("empty placeholder at offset %d", i))
			}
			flush()
			p.segments = append(p.segments, segment{text: name, isColumn: true})
			i = end
		case '}':
			return Pattern{}, invalidTemplate(pattern, fmt.Sprintf("unmatched '}' at offset %d", i))
		default:
			lit.WriteRune(r)
		}
	}
	flush()
	return p, nil
}

// MustParseTemplate is like ParseTemplate but panics on error.
func MustParseTemplate(pattern string) Pattern {
	p, err := ParseTemplate(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original pattern text.
func (p Pattern) String() string {
	return p.source
}

// Columns returns the referenced column names in pattern order.
// A column referenced twice appears twice.
func (p Pattern) Columns() []string {
	var cols []string
	for _, s := range p.segments {
		if s.isColumn {
			cols = append(cols, s.text)
		}
	}
	return cols
}

// Expand substitutes every placeholder using lookup.
//
// All referenced columns are checked before any text is produced, so a
// missing column never yields a partial string: the error names the first
// missing column in pattern order.
func (p Pattern) Expand(lookup Lookup) (string, error) {
	values := make([]string, len(p.segments))
	sawNull := false
	for i, s := range p.segments {
		if !s.isColumn {
			continue
		}
		v, ok := lookup(s.text)
		if !ok {
			return "", MissingColumn(s.text)
		}
		if isNull(v) {
			sawNull = true
			continue
		}
		values[i] = v.Text()
	}
	if sawNull {
		return "", ErrNullValue
	}

	var sb strings.Builder
	for i, s := range p.segments {
		if s.isColumn {
			sb.WriteString(values[i])
		} else {
			sb.WriteString(s.text)
		}
	}
	return sb.String(), nil
}

func invalidTemplate(pattern, msg string) *Error {
	return &Error{
		Code:    ErrCodeInvalidTemplate,
		Message: fmt.Sprintf("%s in %q", msg, pattern),
	}
}
