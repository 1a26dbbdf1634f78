// Package errs defines the error taxonomy shared by every stage of the file
// ingestion pipeline.
//
// All errors are terminal to the cursor that produced them. Callers classify
// them with errors.As:
//
//	var werr *errs.RowWidthError
//	if errors.As(err, &werr) {
//	    log.Printf("bad line %d", werr.Line)
//	}
//
// Messages are prefixed with the operator name ("file") so they read the same
// way regardless of which stage raised them.
package errs

import (
	"errors"
	"fmt"
)

// Op is the operator name used as a prefix in every message.
const Op = "file"

// ErrClosed is returned by Next after the cursor has been closed.
var ErrClosed = errors.New(Op + ": cursor is closed")

// ConfigError reports an unusable configuration: an unknown option, an
// invalid strictness or toj value, or an unsupported dialect. It is raised
// before any row is read.
type ConfigError struct {
	Key string // offending option name; empty when not tied to one key
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", Op, e.Msg)
	}
	return fmt.Sprintf("%s: option %q: %s", Op, e.Key, e.Msg)
}

// Configf builds a ConfigError for key.
func Configf(key, format string, a ...any) error {
	return &ConfigError{Key: key, Msg: fmt.Sprintf(format, a...)}
}

// SourceOpenError wraps a failure to open, fetch, cache or decompress the
// underlying byte source.
type SourceOpenError struct {
	Location string
	Err      error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("%s: open %s: %v", Op, e.Location, e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// EncodingError reports bytes that cannot be decoded with the configured
// character encoding. Line is the 1-based physical row where it happened, or
// zero when unknown.
type EncodingError struct {
	Encoding string
	Line     int
	Err      error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("%s: file is not %s encoded", Op, e.Encoding)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error { return e.Err }

// SchemaError reports a schema that cannot be established (for example a
// JSON-lines first line that is neither a list nor a schema object) or a
// schema that changed after it was frozen.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return Op + ": " + e.Msg }

// RowWidthError is raised in fail-fast mode for the first row whose field
// count differs from the frozen column count. Line is the 1-based physical
// line in the decoded source, so a consumed header line and blank lines are
// counted: the first data row under a header is line 2.
type RowWidthError struct {
	Line     int
	Found    int
	Expected int
	Contents string
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("%s: Line %d is invalid. Found %d of expected %d columns\nThe line's parsed contents are:\n%s",
		Op, e.Line, e.Found, e.Expected, e.Contents)
}

// SequencingError reports an operation called out of order, such as asking
// for the column description before the table was opened.
type SequencingError struct {
	Msg string
}

func (e *SequencingError) Error() string { return Op + ": " + e.Msg }
