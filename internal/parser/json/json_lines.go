// Package json implements the JSON-lines record stream.
//
// Each line holds one JSON value. The first line decides the schema:
//
//	["a", 1, true]                       positional columns C1..C3, and the
//	                                     line is also the first data row
//	{"schema": [["id","int"],["name"]]}  declared columns; the line is consumed
//
// Later lines are decoded lazily with ojg. A list becomes the row; any other
// value becomes a one-field row. Blank lines are skipped.
package json

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ohler55/ojg/oj"

	"tabsource/internal/charset"
	"tabsource/internal/errs"
	"tabsource/internal/parser"
	"tabsource/internal/record"
	"tabsource/internal/schema"
)

const notLineJSON = "input file is not in line JSON format"

// Open reads the schema line from r and returns the schema with the row
// stream positioned after it. An empty source yields an empty schema and an
// empty stream. r must already be decoded by c's Reader.
func Open(r io.Reader, c charset.Codec) (schema.Spec, record.Stream, error) {
	d := &decoder{lr: parser.NewLineReader(r), codec: c}

	first, n, err := d.lr.ReadLine()
	if err == io.EOF {
		return schema.Spec{}, record.Slice(), nil
	}
	if err != nil {
		return nil, nil, err
	}
	v, err := d.decode(first, n)
	if err != nil {
		return nil, nil, err
	}

	switch x := v.(type) {
	case []any:
		d.pending, d.hasPending = record.Row(x), true
		return schema.Positional(len(x)), d, nil
	case map[string]any:
		decl, ok := x["schema"]
		if !ok {
			return nil, nil, &errs.SchemaError{Msg: notLineJSON + `: schema line has no "schema" field`}
		}
		spec, err := schema.FromDeclaration(decl)
		if err != nil {
			return nil, nil, &errs.SchemaError{Msg: fmt.Sprintf("%s: %v", notLineJSON, err)}
		}
		return spec, d, nil
	default:
		return nil, nil, &errs.SchemaError{Msg: notLineJSON}
	}
}

type decoder struct {
	lr    *parser.LineReader
	codec charset.Codec
	line  int

	pending    record.Row // first line in the list form
	hasPending bool
}

// Next implements record.Stream.
func (d *decoder) Next() (record.Row, error) {
	if d.hasPending {
		row := d.pending
		d.pending, d.hasPending = nil, false
		d.line = 1
		return row, nil
	}
	for {
		b, n, err := d.lr.ReadLine()
		if err != nil {
			return nil, err
		}
		d.line = n
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		v, err := d.decode(b, n)
		if err != nil {
			return nil, err
		}
		if list, ok := v.([]any); ok {
			return record.Row(list), nil
		}
		return record.Row{v}, nil
	}
}

// Line implements parser.Liner. Blank lines and the schema line are counted.
func (d *decoder) Line() int { return d.line }

func (d *decoder) decode(b []byte, line int) (any, error) {
	if _, err := d.codec.Text(b, line); err != nil {
		return nil, err
	}
	v, err := oj.Parse(b)
	if err != nil {
		if line == 1 {
			return nil, &errs.SchemaError{Msg: fmt.Sprintf("%s: %v", notLineJSON, err)}
		}
		return nil, fmt.Errorf("json line %d: %w", line, err)
	}
	return v, nil
}

var _ parser.Liner = (*decoder)(nil)
