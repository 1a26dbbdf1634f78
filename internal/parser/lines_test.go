package parser

import (
	"io"
	"strings"
	"testing"
)

func TestLineReader(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 100*1024)
	lr := NewLineReader(strings.NewReader("a\r\n\nb\n" + long + "\nlast"))

	want := []string{"a", "", "b", long, "last"}
	for i, w := range want {
		b, n, err := lr.ReadLine()
		if err != nil {
			t.Fatalf("line %d: %v", i+1, err)
		}
		if string(b) != w || n != i+1 {
			t.Fatalf("line %d = (%d bytes, #%d), want %d bytes", i+1, len(b), n, len(w))
		}
	}
	if _, _, err := lr.ReadLine(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestLineReader_TrailingNewline(t *testing.T) {
	t.Parallel()

	lr := NewLineReader(strings.NewReader("only\n"))
	if b, _, err := lr.ReadLine(); err != nil || string(b) != "only" {
		t.Fatalf("ReadLine = %q, %v", b, err)
	}
	if _, _, err := lr.ReadLine(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}
