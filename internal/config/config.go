// Package config turns the free-form option map handed to a file table into
// the typed Table record the pipeline runs on.
//
// Options come from three places: the key:value argument list of the original
// operator syntax (ParseArgs), a JSON object loaded from disk
// (Options.UnmarshalJSON), or Go code building the map directly. All three
// end up in Parse, which rejects unknown keys before any byte is read.
//
// Example JSON options file (trimmed):
//
//	{
//	  "location": "https://example.org/export.csv.gz",
//	  "header":   true,
//	  "strict":   "0",
//	  "toj":      2
//	}
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Options is the raw option map. Values are strings when they come from an
// argument list and JSON scalars (string, float64, bool) when decoded from a
// file. The accessors below coerce between the two.
type Options map[string]any

// String returns the string form of key or def if key is missing. Numbers and
// booleans are formatted.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := text(v); ok {
			return s
		}
	}
	return def
}

// Bool returns the boolean value for key or def if key is missing. Textual
// booleans (t, f, true, false, 1, 0, yes, no, on, off) are accepted; an
// unparseable value is an error.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	return ParseBool(v)
}

// Int returns the integer value for key or def if key is missing. JSON
// numbers are decoded as float64 by encoding/json and must be whole.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null options
// object decodes to a non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// ParseBool coerces v into a bool.
func ParseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case int:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "t", "true", "1", "yes", "y", "on":
			return true, nil
		case "f", "false", "0", "no", "n", "off", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("%v is not a boolean", v)
}

func text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case nil:
		return "", true
	}
	return "", false
}
