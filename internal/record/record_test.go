package record

import (
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestPeekable_PeekDoesNotConsume(t *testing.T) {
	t.Parallel()

	calls := 0
	src := Slice(Row{"a"}, Row{"b"})
	counting := StreamFunc(func() (Row, error) { calls++; return src.Next() })

	p := NewPeekable(counting)
	for i := 0; i < 3; i++ {
		r, err := p.Peek()
		if err != nil || !reflect.DeepEqual(r, Row{"a"}) {
			t.Fatalf("Peek #%d = %v, %v", i, r, err)
		}
	}
	if calls != 1 {
		t.Fatalf("underlying Next called %d times, want 1", calls)
	}

	rows, err := Collect(p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []Row{{"a"}, {"b"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestPeekable_PeekEOF(t *testing.T) {
	t.Parallel()

	p := NewPeekable(Slice())
	if _, err := p.Peek(); err != io.EOF {
		t.Fatalf("Peek on empty = %v, want io.EOF", err)
	}
	if _, err := p.Next(); err != io.EOF {
		t.Fatalf("Next on empty = %v, want io.EOF", err)
	}
}

func TestCollect_StopsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	n := 0
	s := StreamFunc(func() (Row, error) {
		n++
		if n == 2 {
			return nil, boom
		}
		return Row{"x"}, nil
	})
	rows, err := Collect(s)
	if !errors.Is(err, boom) || len(rows) != 1 {
		t.Fatalf("Collect = %v, %v; want one row and boom", rows, err)
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	r := Row{"1", nil, int64(3), 2.5, true}
	if got, want := r.Join(","), "1,NULL,3,2.5,true"; got != want {
		t.Fatalf("Join = %q, want %q", got, want)
	}
	if got := FromStrings([]string{"a", "b"}); !reflect.DeepEqual(got, Row{"a", "b"}) {
		t.Fatalf("FromStrings = %v", got)
	}
}
