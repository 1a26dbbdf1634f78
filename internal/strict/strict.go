// Package strict applies a row-width tolerance policy to a record stream.
//
// The expected width is frozen when the filter is built (from the header or
// from the first row). Rows of a different width are handled by Mode:
//
//   - FailFast aborts with *errs.RowWidthError.
//   - DropInvalid skips them.
//   - ReportInvalid emits only them, rewritten as diagnostic rows; well-formed
//     rows are suppressed and the schema becomes ReportSpec.
//   - Unchecked passes everything through (fast mode without a strict option).
package strict

import (
	"fmt"
	"strings"

	"tabsource/internal/errs"
	"tabsource/internal/record"
	"tabsource/internal/schema"
)

// Mode is one of the tolerance policies.
type Mode int

const (
	FailFast Mode = iota
	DropInvalid
	ReportInvalid
	Unchecked
)

func (m Mode) String() string {
	switch m {
	case FailFast:
		return "fail-fast"
	case DropInvalid:
		return "drop-invalid"
	case ReportInvalid:
		return "report-invalid"
	default:
		return "unchecked"
	}
}

// ParseMode maps the textual strict option ("1", "0", "-1") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return FailFast, nil
	case "0":
		return DropInvalid, nil
	case "-1":
		return ReportInvalid, nil
	}
	return FailFast, fmt.Errorf("invalid strict value %q (want -1, 0 or 1)", s)
}

// ReportSpec is the schema of ReportInvalid output.
func ReportSpec() schema.Spec {
	return schema.Spec{
		{Name: "linenumber", Type: schema.TypeInt},
		{Name: "foundcols", Type: schema.TypeInt},
		{Name: "expectedcols", Type: schema.TypeInt},
		{Name: "contents", Type: schema.TypeText},
	}
}

// Filter wraps a stream with a Mode. Line numbers are 1-based positions in
// the source. Without a line source the filter counts rows, and when
// headerConsumed is set the first data row is line 2.
type Filter struct {
	src      record.Stream
	mode     Mode
	width    int
	line     int
	lines    func() int
	observer Observer
}

// Observer is notified of every row the filter inspects. Any of its fields
// may be nil.
type Observer struct {
	Passed   func()
	Dropped  func()
	Reported func()
}

// New builds a Filter over src expecting width fields per row.
func New(src record.Stream, mode Mode, width int, headerConsumed bool) *Filter {
	f := &Filter{src: src, mode: mode, width: width}
	if headerConsumed {
		f.line = 1
	}
	return f
}

// Observe installs an Observer and returns f.
func (f *Filter) Observe(o Observer) *Filter {
	f.observer = o
	return f
}

// Lines makes f take the line of each row from fn, called right after the
// row is read. Use it when the reader skips lines that rows do not count.
func (f *Filter) Lines(fn func() int) *Filter {
	f.lines = fn
	return f
}

// Width returns the frozen expected width.
func (f *Filter) Width() int { return f.width }

// Next implements record.Stream.
func (f *Filter) Next() (record.Row, error) {
	for {
		row, err := f.src.Next()
		if err != nil {
			return nil, err
		}
		if f.lines != nil {
			f.line = f.lines()
		} else {
			f.line++
		}

		if f.mode == Unchecked || len(row) == f.width {
			if f.mode == ReportInvalid {
				continue
			}
			notify(f.observer.Passed)
			return row, nil
		}

		switch f.mode {
		case FailFast:
			return nil, &errs.RowWidthError{
				Line:     f.line,
				Found:    len(row),
				Expected: f.width,
				Contents: row.Join(","),
			}
		case DropInvalid:
			notify(f.observer.Dropped)
			continue
		case ReportInvalid:
			notify(f.observer.Reported)
			return record.Row{
				int64(f.line),
				int64(len(row)),
				int64(f.width),
				row.Join(","),
			}, nil
		}
	}
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

var _ record.Stream = (*Filter)(nil)
