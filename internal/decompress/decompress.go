// Package decompress wraps raw byte streams with transparent streaming
// decompressors and derives the logical file name used for dialect sniffing.
//
// Kinds are chosen by explicit configuration, by file-name suffix
// (".csv.gz" → gzip, logical name ".csv"), or by a transport signal such as
// an HTTP Content-Encoding header. Zip is special: it is an archive, so the
// source layer iterates its members instead of wrapping the stream here.
package decompress

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

// Kind represents a compression format.
type Kind int

const (
	None Kind = iota
	Gzip
	Zip
	Bzip2
	XZ
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Gzip:
		return "gzip"
	case Zip:
		return "zip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

// ParseKind maps a configuration value to a Kind. It accepts "gz" as an
// alias of "gzip" and "bz2" of "bzip2".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zip":
		return Zip, nil
	case "bzip2", "bz2":
		return Bzip2, nil
	case "xz":
		return XZ, nil
	}
	return None, fmt.Errorf("unsupported compression type %q", s)
}

// suffixes are checked in order; the first match wins.
var suffixes = []struct {
	ext  string
	kind Kind
}{
	{".gzip", Gzip},
	{".gz", Gzip},
	{".bz2", Bzip2},
	{".xz", XZ},
}

// FromSuffix reports the stream compression implied by name's suffix
// (case-insensitive). Zip is never inferred from a suffix.
func FromSuffix(name string) Kind {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.kind
		}
	}
	return None
}

// StripSuffix removes the compression suffix matching kind from name, so
// "data.csv.gz" becomes "data.csv". Names without that suffix are returned
// unchanged.
func StripSuffix(name string, kind Kind) string {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if s.kind == kind && strings.HasSuffix(lower, s.ext) {
			return name[:len(name)-len(s.ext)]
		}
	}
	return name
}

// Magic byte signatures.
var (
	zipMagic   = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// MagicLen is the number of leading bytes DetectMagic needs.
const MagicLen = 6

// DetectMagic identifies a compression format from the leading bytes of a
// stream. It returns None when no signature matches.
func DetectMagic(head []byte) Kind {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return Zip
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, bzip2Magic):
		return Bzip2
	case bytes.HasPrefix(head, xzMagic):
		return XZ
	}
	return None
}

// Wrap returns a ReadCloser that decompresses rc according to kind. Closing
// the result closes the decompressor (when it has a Close) and then rc. On
// error rc is left open; the caller owns it.
//
// None returns rc unchanged. Zip is rejected: archives are iterated by the
// source layer.
func Wrap(rc io.ReadCloser, kind Kind) (io.ReadCloser, error) {
	switch kind {
	case None:
		return rc, nil
	case Gzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &readCloser{r: zr, closers: []io.Closer{zr, rc}}, nil
	case Bzip2:
		return &readCloser{r: bzip2.NewReader(rc), closers: []io.Closer{rc}}, nil
	case XZ:
		xr, err := xz.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("create xz reader: %w", err)
		}
		return &readCloser{r: xr, closers: []io.Closer{rc}}, nil
	case Zip:
		return nil, fmt.Errorf("zip is an archive and cannot be wrapped as a stream")
	}
	return nil, fmt.Errorf("unsupported compression type: %v", kind)
}

// readCloser pairs a decompressing reader with the closers to release on
// Close, innermost first.
type readCloser struct {
	r       io.Reader
	closers []io.Closer
}

func (d *readCloser) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *readCloser) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
