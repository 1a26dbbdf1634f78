package filetable

import (
	"io"
	"log/slog"
	"sync"

	"tabsource/internal/errs"
	"tabsource/internal/metrics"
	"tabsource/internal/record"
	"tabsource/internal/schema"
)

// Cursor is one forward-only pass over a table. It is not safe for
// concurrent use. The caller must Close it, also after an error.
type Cursor struct {
	id     string
	job    string
	spec   schema.Spec
	src    io.Closer
	stream record.Stream
	log    *slog.Logger

	err      error // terminal error, repeated by later Next calls
	closed   bool
	once     sync.Once
	closeErr error

	emitted  int64
	dropped  int64
	reported int64
}

// ID returns the cursor's unique id, also attached to its log records.
func (c *Cursor) ID() string { return c.id }

// Describe returns a copy of the cursor's column description. It never
// changes during the cursor's lifetime.
func (c *Cursor) Describe() schema.Spec { return c.spec.Clone() }

// Next returns the next row, or io.EOF once the source is exhausted. After a
// failure every later call returns the same error; after Close it returns
// errs.ErrClosed.
func (c *Cursor) Next() (record.Row, error) {
	if c.closed {
		return nil, errs.ErrClosed
	}
	if c.err != nil {
		return nil, c.err
	}
	row, err := c.stream.Next()
	if err != nil {
		c.err = err
		return nil, err
	}
	c.emitted++
	return row, nil
}

// Close releases the source. It runs once; later calls return the first
// result.
func (c *Cursor) Close() error {
	c.once.Do(func() {
		c.closed = true
		c.closeErr = c.src.Close()

		metrics.RecordRows(c.job, metrics.KindEmitted, c.emitted)
		metrics.RecordRows(c.job, metrics.KindDropped, c.dropped)
		metrics.RecordRows(c.job, metrics.KindReported, c.reported)
		metrics.RecordClose(c.job)
		c.log.Debug("cursor closed",
			"emitted", c.emitted,
			"dropped", c.dropped,
			"reported", c.reported,
		)
	})
	return c.closeErr
}

// Stats reports the rows emitted, dropped and reported so far.
func (c *Cursor) Stats() (emitted, dropped, reported int64) {
	return c.emitted, c.dropped, c.reported
}
