package strict

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"tabsource/internal/errs"
	"tabsource/internal/record"
)

func rows(fields ...[]string) []record.Row {
	out := make([]record.Row, len(fields))
	for i, f := range fields {
		out[i] = record.FromStrings(f)
	}
	return out
}

func TestFailFast_RowWidthError(t *testing.T) {
	t.Parallel()

	// 1,2,3\n1,2 with width frozen at 3 from the first row.
	src := record.Slice(rows([]string{"1", "2", "3"}, []string{"1", "2"})...)
	f := New(src, FailFast, 3, false)

	got, err := f.Next()
	if err != nil || len(got) != 3 {
		t.Fatalf("first Next = %v, %v", got, err)
	}

	_, err = f.Next()
	var werr *errs.RowWidthError
	if !errors.As(err, &werr) {
		t.Fatalf("second Next error = %v, want *RowWidthError", err)
	}
	if werr.Line != 2 || werr.Found != 2 || werr.Expected != 3 || werr.Contents != "1,2" {
		t.Fatalf("RowWidthError = %+v", werr)
	}
}

func TestReportInvalid_Diagnostics(t *testing.T) {
	t.Parallel()

	src := record.Slice(rows([]string{"1", "2", "3"}, []string{"1", "2"})...)
	got, err := record.Collect(New(src, ReportInvalid, 3, false))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []record.Row{{int64(2), int64(2), int64(3), "1,2"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %#v, want %#v", got, want)
	}
}

func TestReportInvalid_HeaderOffset(t *testing.T) {
	t.Parallel()

	src := record.Slice(rows([]string{"x"}, []string{"1", "2"})...)
	got, err := record.Collect(New(src, ReportInvalid, 2, true))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 || got[0][0] != int64(2) {
		t.Fatalf("rows = %#v, want single diagnostic at line 2", got)
	}
}

// DropInvalid and ReportInvalid partition the input: together they account
// for every row exactly once.
func TestDropAndReportAreComplementary(t *testing.T) {
	t.Parallel()

	input := rows(
		[]string{"a", "b"},
		[]string{"c"},
		[]string{"d", "e"},
		[]string{"f", "g", "h"},
		[]string{},
		[]string{"i", "j"},
	)

	kept, err := record.Collect(New(record.Slice(input...), DropInvalid, 2, false))
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	wantKept := []record.Row{input[0], input[2], input[5]}
	if !reflect.DeepEqual(kept, wantKept) {
		t.Fatalf("kept = %v, want %v", kept, wantKept)
	}

	reported, err := record.Collect(New(record.Slice(input...), ReportInvalid, 2, false))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(kept)+len(reported) != len(input) {
		t.Fatalf("kept %d + reported %d != %d", len(kept), len(reported), len(input))
	}
	for _, r := range reported {
		line := int(r[0].(int64))
		found := r[1].(int64)
		if found != int64(len(input[line-1])) || r[2] != int64(2) {
			t.Fatalf("diagnostic %v does not match input line %d", r, line)
		}
	}
}

func TestUnchecked_PassesEverything(t *testing.T) {
	t.Parallel()

	input := rows([]string{"a"}, []string{"b", "c"})
	got, err := record.Collect(New(record.Slice(input...), Unchecked, 1, false))
	if err != nil || len(got) != 2 {
		t.Fatalf("Collect = %v, %v", got, err)
	}
}

func TestObserver(t *testing.T) {
	t.Parallel()

	var passed, dropped int
	input := rows([]string{"a"}, []string{"b", "c"}, []string{"d"})
	f := New(record.Slice(input...), DropInvalid, 1, false).Observe(Observer{
		Passed:  func() { passed++ },
		Dropped: func() { dropped++ },
	})
	if _, err := record.Collect(f); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if passed != 2 || dropped != 1 {
		t.Fatalf("passed=%d dropped=%d", passed, dropped)
	}
}

func TestPropagatesUnderlyingError(t *testing.T) {
	t.Parallel()

	boom := errors.New("tokenizer failed")
	src := record.StreamFunc(func() (record.Row, error) { return nil, boom })
	if _, err := New(src, DropInvalid, 1, false).Next(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := New(record.Slice(), FailFast, 1, false).Next(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"1": FailFast, "0": DropInvalid, "-1": ReportInvalid, " 0 ": DropInvalid} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, bad := range []string{"2", "yes", ""} {
		if _, err := ParseMode(bad); err == nil {
			t.Errorf("ParseMode(%q) expected error", bad)
		}
	}
}

func TestLines_UsesSourceLineNumbers(t *testing.T) {
	t.Parallel()

	// Rows read from lines 1, 3 and 4 of a source with a blank line 2.
	lines := []int{1, 3, 4}
	i := -1
	src := record.StreamFunc(func() (record.Row, error) {
		i++
		if i == len(lines) {
			return nil, io.EOF
		}
		if i == 1 {
			return record.FromStrings([]string{"1", "2"}), nil
		}
		return record.FromStrings([]string{"1", "2", "3"}), nil
	})
	lineOf := func() int { return lines[i] }

	got, err := record.Collect(New(src, ReportInvalid, 3, false).Lines(lineOf))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if want := []record.Row{{int64(3), int64(2), int64(3), "1,2"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}

	i = -1
	_, err = record.Collect(New(src, FailFast, 3, true).Lines(lineOf))
	var werr *errs.RowWidthError
	if !errors.As(err, &werr) || werr.Line != 3 {
		t.Fatalf("err = %v, want RowWidthError at line 3", err)
	}
}
