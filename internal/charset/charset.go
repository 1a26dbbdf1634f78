// Package charset resolves character-encoding names and decodes source
// bytes into UTF-8 text for the record streams.
//
// Names are accepted in IANA, WHATWG and Python codec spellings ("utf_8",
// "latin_1", "cp1252"). UTF-8 and ASCII are validated strictly; other
// encodings are decoded with golang.org/x/text. Latin-1 is ISO 8859-1, not
// the windows-1252 superset browsers substitute for it.
package charset

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"tabsource/internal/errs"
)

// Default is the encoding used when none is configured.
const Default = "utf-8"

type kind int

const (
	kindUTF8 kind = iota
	kindUTF8BOM
	kindASCII
	kindOther
)

// Codec decodes one named encoding.
type Codec struct {
	name string
	kind kind
	enc  encoding.Encoding
}

// errInvalid marks an invalid byte sequence.
var errInvalid = errors.New("invalid byte sequence")

// Lookup returns the Codec for name. Unknown names are an error.
func Lookup(name string) (Codec, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "utf-8", "utf8", "u8":
		return Codec{name: Default, kind: kindUTF8}, nil
	case "utf-8-sig", "utf8-sig":
		return Codec{name: "utf-8-sig", kind: kindUTF8BOM, enc: unicode.UTF8BOM}, nil
	case "ascii", "us-ascii", "646":
		return Codec{name: "ascii", kind: kindASCII}, nil
	case "latin-1", "latin1", "l1", "iso-8859-1", "iso8859-1", "8859", "cp819", "iso-ir-100":
		// WHATWG labels these windows-1252; the codec is the real ISO 8859-1.
		return Codec{name: "latin1", kind: kindOther, enc: charmap.ISO8859_1}, nil
	}

	// IANA first: the HTML index folds several ISO charsets into their
	// Windows supersets.
	if enc, err := ianaindex.IANA.Encoding(n); err == nil && enc != nil {
		return Codec{name: n, kind: kindOther, enc: enc}, nil
	}
	if enc, err := htmlindex.Get(n); err == nil && enc != nil {
		return Codec{name: n, kind: kindOther, enc: enc}, nil
	}
	return Codec{}, fmt.Errorf("unknown encoding %q", name)
}

// MustLookup is Lookup for names known to be valid.
func MustLookup(name string) Codec {
	c, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the canonical name used in error messages.
func (c Codec) Name() string { return c.name }

// NeedsTransform reports whether bytes must pass through a decoder before
// they are valid UTF-8 text.
func (c Codec) NeedsTransform() bool { return c.kind == kindOther || c.kind == kindUTF8BOM }

// Reader returns r decoded into UTF-8. For UTF-8 and ASCII it returns r
// unchanged; validation then happens per field or line. Decoder failures
// surface as *errs.EncodingError, read errors from r pass through.
func (c Codec) Reader(r io.Reader) io.Reader {
	if !c.NeedsTransform() {
		return r
	}
	src := &errTracker{r: r}
	return &decodingReader{name: c.name, src: src, r: transform.NewReader(src, c.enc.NewDecoder())}
}

// errTracker remembers the last error returned by the wrapped reader so that
// decoder errors can be told apart from I/O errors.
type errTracker struct {
	r   io.Reader
	err error
}

func (t *errTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.err = err
	return n, err
}

type decodingReader struct {
	name string
	src  *errTracker
	r    io.Reader
}

func (d *decodingReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF && !errors.Is(err, d.src.err) {
		err = &errs.EncodingError{Encoding: d.name, Err: err}
	}
	return n, err
}

// Text converts one raw line read from Reader's output into a string,
// validating it for encodings that Reader passes through. line is reported
// in the error and may be zero.
func (c Codec) Text(b []byte, line int) (string, error) {
	switch c.kind {
	case kindUTF8, kindUTF8BOM:
		if !utf8.Valid(b) {
			return "", &errs.EncodingError{Encoding: c.name, Line: line, Err: errInvalid}
		}
	case kindASCII:
		if i := nonASCII(b); i >= 0 {
			return "", &errs.EncodingError{Encoding: c.name, Line: line, Err: fmt.Errorf("byte 0x%02x at offset %d", b[i], i)}
		}
	}
	return string(b), nil
}

// Validate checks already-tokenized fields read from Reader's output.
func (c Codec) Validate(fields []string, line int) error {
	switch c.kind {
	case kindUTF8, kindUTF8BOM:
		for _, f := range fields {
			if !utf8.ValidString(f) {
				return &errs.EncodingError{Encoding: c.name, Line: line, Err: errInvalid}
			}
		}
	case kindASCII:
		for _, f := range fields {
			if i := nonASCII([]byte(f)); i >= 0 {
				return &errs.EncodingError{Encoding: c.name, Line: line, Err: fmt.Errorf("byte 0x%02x at offset %d", f[i], i)}
			}
		}
	}
	return nil
}

func nonASCII(b []byte) int {
	for i, x := range b {
		if x >= utf8.RuneSelf {
			return i
		}
	}
	return -1
}
