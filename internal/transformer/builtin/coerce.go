package builtin

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// CoerceNumber converts textual numbers to numeric values: integers first
// (int64, or *big.Int when out of range), then finite floats. Anything else,
// including nil and non-string values, is returned unchanged. Surrounding
// whitespace is ignored for the numeric check.
func CoerceNumber(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t := strings.TrimSpace(s)
	if t == "" {
		return v
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	if isInteger(t) {
		if b, ok := new(big.Int).SetString(strings.TrimPrefix(t, "+"), 10); ok {
			return b
		}
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && !notDecimal(t) {
		return f
	}
	return v
}

func isInteger(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// strconv accepts hexadecimal floats and underscores; decimal notation only
// is treated as a number here.
func notDecimal(s string) bool {
	return strings.ContainsAny(s, "xX_pP")
}
