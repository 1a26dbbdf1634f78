// Package record defines the row value flowing through the pipeline and the
// pull-based Stream contract every stage implements.
//
// A Stream produces one Row per Next call and io.EOF once exhausted. Stages
// wrap the stream they consume and own nothing else; there is no background
// work and no speculative read-ahead beyond Peekable's single row.
package record

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is an ordered sequence of field values. Fields are strings, nil (the
// absent-value marker), or decoded JSON values for JSON-lines sources.
type Row []any

// Stream is a forward-only sequence of rows.
type Stream interface {
	// Next returns the next row, or io.EOF when the stream is exhausted.
	Next() (Row, error)
}

// StreamFunc adapts a function to Stream.
type StreamFunc func() (Row, error)

func (f StreamFunc) Next() (Row, error) { return f() }

// FromStrings converts a field list into a Row of strings.
func FromStrings(fields []string) Row {
	row := make(Row, len(fields))
	for i, f := range fields {
		row[i] = f
	}
	return row
}

// Slice returns a Stream over rows, for tests and re-injection.
func Slice(rows ...Row) Stream {
	i := 0
	return StreamFunc(func() (Row, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		r := rows[i]
		i++
		return r, nil
	})
}

// Collect drains s into a slice. It stops at the first error other than
// io.EOF and returns the rows read so far with that error.
func Collect(s Stream) ([]Row, error) {
	var out []Row
	for {
		r, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}

// NullText is how an absent value is rendered in diagnostics.
const NullText = "NULL"

// FieldString renders one field for diagnostics and display.
func FieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Join renders the row's fields joined by sep.
func (r Row) Join(sep string) string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = FieldString(v)
	}
	return strings.Join(parts, sep)
}
