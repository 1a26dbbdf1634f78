package parser

import (
	"bufio"
	"bytes"
	"io"
)

// LineReader yields raw lines with the trailing "\n" or "\r\n" removed. A
// final line without a terminator is returned as-is; an empty final segment
// is not a line.
type LineReader struct {
	br   *bufio.Reader
	line int
	done bool
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next line and its 1-based number. The returned slice
// is only valid until the next call.
func (l *LineReader) ReadLine() ([]byte, int, error) {
	if l.done {
		return nil, l.line, io.EOF
	}
	b, err := l.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// Long line: fall back to an accumulating read.
		head := append([]byte(nil), b...)
		rest, rerr := l.br.ReadBytes('\n')
		b = append(head, rest...)
		err = rerr
	}
	switch {
	case err == io.EOF:
		l.done = true
		if len(b) == 0 {
			return nil, l.line, io.EOF
		}
	case err != nil:
		return nil, l.line, err
	}
	l.line++
	b = bytes.TrimSuffix(b, []byte{'\n'})
	b = bytes.TrimSuffix(b, []byte{'\r'})
	return b, l.line, nil
}
