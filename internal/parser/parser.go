// Package parser defines the tokenizer capability consumed by the delimited
// record stream and the formatting rules handed to it.
//
// A Tokenizer turns decoded text into a forward-only sequence of field lists.
// Concrete tokenizers live in subpackages (parser/csv); the pipeline only
// depends on the interfaces declared here.
package parser

import "io"

// Quoting selects when the tokenizer recognizes quote characters.
type Quoting int

const (
	// QuoteMinimal recognizes quotes around fields that need them (default).
	QuoteMinimal Quoting = iota
	// QuoteAll behaves like QuoteMinimal on read.
	QuoteAll
	// QuoteNonNumeric behaves like QuoteMinimal on read.
	QuoteNonNumeric
	// QuoteNone disables quote handling entirely; quote characters are data.
	QuoteNone
)

func (q Quoting) String() string {
	switch q {
	case QuoteAll:
		return "ALL"
	case QuoteNonNumeric:
		return "NONNUMERIC"
	case QuoteNone:
		return "NONE"
	default:
		return "MINIMAL"
	}
}

// Format carries the delimited-text rules for one source.
type Format struct {
	// Delimiter separates fields. Default ','.
	Delimiter rune
	// Quote encloses fields containing special characters. Default '"'.
	Quote rune
	// Escape removes the special meaning of the following character. Zero
	// disables escaping.
	Escape rune
	// DoubleQuote treats a doubled quote inside a quoted field as one quote.
	DoubleQuote bool
	// LineTerminator is informational on read; the tokenizers accept \n and
	// \r\n. Default "\r\n".
	LineTerminator string
	// Quoting selects quote recognition.
	Quoting Quoting
	// SkipInitialSpace drops whitespace immediately after a delimiter.
	SkipInitialSpace bool
}

// DefaultCSV returns the comma-separated default format.
func DefaultCSV() Format {
	return Format{
		Delimiter:      ',',
		Quote:          '"',
		DoubleQuote:    true,
		LineTerminator: "\r\n",
		Quoting:        QuoteMinimal,
	}
}

// DefaultTSV returns the tab-separated default format.
func DefaultTSV() Format {
	f := DefaultCSV()
	f.Delimiter = '\t'
	return f
}

// FieldReader yields one field list per call and io.EOF at the end.
// Returned slices are owned by the caller.
type FieldReader interface {
	Read() ([]string, error)
}

// Liner is implemented by field readers and record streams that know the
// 1-based source line on which the last returned record started. Blank lines
// skipped by the reader are still counted.
type Liner interface {
	Line() int
}

// Tokenizer splits a text stream into field lists according to a Format.
// Split returns an error when the Format cannot be honored.
type Tokenizer interface {
	Split(r io.Reader, f Format) (FieldReader, error)
}
