package ir

import (
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface representing one column value of a Record.
// Only Null, String, Int and Bool implement it.
// NO float - REAL columns break lexical determinism of generated terms.
type Value interface {
	value() // Sealed - only these types implement it

	// Text returns the lexical form used when the value is substituted
	// into a term. Null has no lexical form and returns "".
	Text() string
}

// Null represents an SQL NULL column value.
type Null struct{}

func (Null) value() {}

// Text implements Value.
func (Null) Text() string { return "" }

// String represents a text column value.
type String string

func (String) value() {}

// Text implements Value.
func (s String) Text() string { return string(s) }

// Int represents an integer column value.
type Int int64

func (Int) value() {}

// Text implements Value. Integers render in base 10.
func (i Int) Text() string { return strconv.FormatInt(int64(i), 10) }

// Bool represents a boolean column value.
type Bool bool

func (Bool) value() {}

// Text implements Value.
func (b Bool) Text() string { return strconv.FormatBool(bool(b)) }

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Equal reports whether two values join-match.
// Null never equals anything, including another Null.
// Values of different kinds compare by lexical form so an INTEGER key
// matches the same key stored as TEXT.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return false
	}
	return a.Text() == b.Text()
}

// FromGo converts a Go native value to a Value.
// Supports the types database/sql and gopkg.in/yaml.v3 produce for
// non-float scalars.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case []byte:
		return String(string(val)), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(int64(val)), nil
	case bool:
		return Bool(val), nil
	case float32, float64:
		return nil, fmt.Errorf("float values are forbidden in records: %v - store as TEXT or INTEGER", val)
	default:
		return nil, fmt.Errorf("unsupported column value type: %T", v)
	}
}

// sortedKeys returns map keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
