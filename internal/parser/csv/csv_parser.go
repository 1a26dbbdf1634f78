// Package csv provides the delimited-text tokenizers and the record stream
// built on top of them.
//
// Two tokenizers are available. Tokenizer adapts encoding/csv: quotes are
// honored, the reader is lenient about stray quotes and never enforces a
// field count (width policy belongs to the strict package). Plain splits each
// line on the delimiter with no quote awareness; it serves fast mode and
// QUOTE_NONE. Neither buffers more than one line of input.
package csv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"tabsource/internal/charset"
	"tabsource/internal/parser"
	"tabsource/internal/record"
)

// Tokenizer is the quote-aware parser.Tokenizer backed by encoding/csv.
// QUOTE_NONE formats are delegated to Plain.
type Tokenizer struct{}

// Split implements parser.Tokenizer.
func (Tokenizer) Split(r io.Reader, f parser.Format) (parser.FieldReader, error) {
	if f.Quoting == parser.QuoteNone {
		return Plain{}.Split(r, f)
	}
	if err := checkFormat(f); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = f.Delimiter
	cr.TrimLeadingSpace = f.SkipInitialSpace
	// Stray quotes are data, and row width is checked downstream.
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return quotedReader{cr}, nil
}

// quotedReader reports source lines from the csv.Reader field positions,
// which count the empty lines encoding/csv skips.
type quotedReader struct{ *csv.Reader }

// Line implements parser.Liner. It is only meaningful after a successful
// Read.
func (q quotedReader) Line() int {
	line, _ := q.FieldPos(0)
	return line
}

// checkFormat rejects formats encoding/csv cannot honor on read.
func checkFormat(f parser.Format) error {
	switch {
	case f.Delimiter == 0:
		return fmt.Errorf("delimiter must be set")
	case f.Delimiter == '\r' || f.Delimiter == '\n':
		return fmt.Errorf("delimiter %q is a line break", f.Delimiter)
	case f.Quote != 0 && f.Quote != '"':
		return fmt.Errorf("quotechar %q is not supported (only '\"')", f.Quote)
	case f.Delimiter == f.Quote:
		return fmt.Errorf("delimiter and quotechar are both %q", f.Delimiter)
	case f.Escape != 0:
		return fmt.Errorf("escapechar requires quoting NONE")
	}
	return nil
}

// Plain splits lines on the delimiter without quote handling. When the
// format carries an escape character, it removes the special meaning of the
// character that follows it (including the delimiter).
type Plain struct{}

// Split implements parser.Tokenizer.
func (Plain) Split(r io.Reader, f parser.Format) (parser.FieldReader, error) {
	if f.Delimiter == 0 || f.Delimiter == '\r' || f.Delimiter == '\n' {
		return nil, fmt.Errorf("invalid delimiter %q", f.Delimiter)
	}
	if f.Escape == f.Delimiter && f.Escape != 0 {
		return nil, fmt.Errorf("delimiter and escapechar are both %q", f.Delimiter)
	}
	return &plainReader{
		br:     bufio.NewReaderSize(r, 64*1024),
		delim:  string(f.Delimiter),
		escape: f.Escape,
	}, nil
}

type plainReader struct {
	br     *bufio.Reader
	delim  string
	escape rune
	line   int
	done   bool
}

// Line implements parser.Liner.
func (p *plainReader) Line() int { return p.line }

func (p *plainReader) Read() ([]string, error) {
	if p.done {
		return nil, io.EOF
	}
	line, err := p.br.ReadString('\n')
	if err == io.EOF {
		p.done = true
		if line == "" {
			return nil, io.EOF
		}
	} else if err != nil {
		return nil, err
	}
	p.line++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if p.escape == 0 || !strings.ContainsRune(line, p.escape) {
		return strings.Split(line, p.delim), nil
	}
	return p.splitEscaped(line), nil
}

func (p *plainReader) splitEscaped(line string) []string {
	var (
		fields  []string
		b       strings.Builder
		escaped bool
	)
	for _, c := range line {
		switch {
		case escaped:
			b.WriteRune(c)
			escaped = false
		case c == p.escape:
			escaped = true
		case string(c) == p.delim:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(c)
		}
	}
	return append(fields, b.String())
}

// Records turns a field reader into a record.Stream. Every field list is
// validated against the codec. The returned stream implements parser.Liner:
// when fr knows its source lines they are passed through, otherwise records
// are counted.
func Records(fr parser.FieldReader, c charset.Codec) record.Stream {
	r := &records{fr: fr, codec: c}
	r.liner, _ = fr.(parser.Liner)
	return r
}

type records struct {
	fr    parser.FieldReader
	liner parser.Liner
	codec charset.Codec
	line  int
}

func (r *records) Next() (record.Row, error) {
	fields, err := r.fr.Read()
	if err != nil {
		return nil, err
	}
	if r.liner != nil {
		r.line = r.liner.Line()
	} else {
		r.line++
	}
	if err := r.codec.Validate(fields, r.line); err != nil {
		return nil, err
	}
	return record.FromStrings(fields), nil
}

// Line implements parser.Liner.
func (r *records) Line() int { return r.line }

var (
	_ parser.Tokenizer = Tokenizer{}
	_ parser.Tokenizer = Plain{}
	_ parser.Liner     = quotedReader{}
	_ parser.Liner     = (*plainReader)(nil)
	_ parser.Liner     = (*records)(nil)
)
