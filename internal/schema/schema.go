// Package schema derives the column description of a source: from a header
// row, from a JSON-lines schema declaration, or positionally (C1..Cn).
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Common column types.
const (
	TypeText = "text"
	TypeInt  = "int"
)

// Column is one (name, declared type) pair.
type Column struct {
	Name string
	Type string
}

// Spec is the ordered column description of a cursor.
type Spec []Column

// Names returns the column names in order.
func (s Spec) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Clone returns a copy that shares nothing with s.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	copy(out, s)
	return out
}

// Equal reports whether s and o describe the same columns.
func (s Spec) Equal(o Spec) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + ":" + c.Type
	}
	return strings.Join(parts, ", ")
}

// Positional returns n text columns named C1..Cn.
func Positional(n int) Spec {
	out := make(Spec, n)
	for i := range out {
		out[i] = Column{Name: positionalName(i), Type: TypeText}
	}
	return out
}

func positionalName(i int) string { return "C" + strconv.Itoa(i+1) }

// FromHeader builds text columns from header fields, cleaning each name with
// CleanName. A field that cleans to the empty string is named positionally.
func FromHeader(fields []any) Spec {
	out := make(Spec, len(fields))
	for i, f := range fields {
		s, _ := f.(string)
		name := CleanName(s)
		if name == "" {
			name = positionalName(i)
		}
		out[i] = Column{Name: name, Type: TypeText}
	}
	return out
}

// FromDeclaration parses a JSON schema declaration of the form
// [["x","int"],["y","text"]]. A bare name (["x","y"]) is typed as text.
func FromDeclaration(v any) (Spec, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("schema must be a list, got %T", v)
	}
	out := make(Spec, 0, len(list))
	for i, item := range list {
		switch c := item.(type) {
		case string:
			out = append(out, Column{Name: c, Type: TypeText})
		case []any:
			if len(c) == 0 {
				return nil, fmt.Errorf("schema entry %d is empty", i)
			}
			name, ok := c[0].(string)
			if !ok {
				return nil, fmt.Errorf("schema entry %d: name must be a string, got %T", i, c[0])
			}
			typ := TypeText
			if len(c) > 1 {
				if t, ok := c[1].(string); ok && t != "" {
					typ = t
				}
			}
			out = append(out, Column{Name: name, Type: typ})
		default:
			return nil, fmt.Errorf("schema entry %d: unsupported %T", i, item)
		}
	}
	return out, nil
}

// asciiOnly decomposes accented letters, drops the combining marks and then
// every remaining non-ASCII rune (including the byte-order mark).
var asciiOnly = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// CleanName turns a raw header field into a column name: it strips a
// byte-order mark and non-ASCII decoration ("Pčv" → "Pcv") and trims
// surrounding whitespace.
func CleanName(s string) string {
	out, _, err := transform.String(asciiOnly, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}
