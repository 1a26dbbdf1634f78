// Package line implements the line-mode record stream: every line of the
// source is a one-field row.
package line

import (
	"io"

	"tabsource/internal/charset"
	"tabsource/internal/parser"
	"tabsource/internal/record"
	"tabsource/internal/schema"
)

// Spec is the fixed schema of line mode.
func Spec() schema.Spec { return schema.Positional(1) }

// Stream returns one row per line of r. r must already be decoded by c's
// Reader; lines are validated for the encodings it passes through.
func Stream(r io.Reader, c charset.Codec) record.Stream {
	lr := parser.NewLineReader(r)
	return record.StreamFunc(func() (record.Row, error) {
		b, n, err := lr.ReadLine()
		if err != nil {
			return nil, err
		}
		s, err := c.Text(b, n)
		if err != nil {
			return nil, err
		}
		return record.Row{s}, nil
	})
}
