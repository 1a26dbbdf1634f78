// Package transformer defines row-stream stages. A Transformer wraps the
// stream it consumes and returns the stream it produces; stages are pulled
// one row at a time by the consumer.
package transformer

import "tabsource/internal/record"

type Transformer interface{ Wrap(record.Stream) record.Stream }

// Chain is an ordered list of transformers. The first element sees the source
// rows.
type Chain []Transformer

func (c Chain) Wrap(in record.Stream) record.Stream {
	out := in
	for _, t := range c {
		out = t.Wrap(out)
	}
	return out
}

// Map is a Transformer that rewrites every row with fn. Errors from fn stop
// the stream.
type Map func(record.Row) (record.Row, error)

func (fn Map) Wrap(in record.Stream) record.Stream {
	return record.StreamFunc(func() (record.Row, error) {
		row, err := in.Next()
		if err != nil {
			return nil, err
		}
		return fn(row)
	})
}
