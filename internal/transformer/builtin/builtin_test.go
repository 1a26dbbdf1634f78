package builtin

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"tabsource/internal/record"
	"tabsource/internal/schema"
)

func TestNullify(t *testing.T) {
	t.Parallel()

	src := record.Slice(record.Row{"NULL", "null", "NuLl", "NULLx", "", "xNULL", int64(1), nil})
	got, err := record.Collect(Nullify{}.Wrap(src))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []record.Row{{nil, nil, nil, "NULLx", "", "xNULL", int64(1), nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %#v, want %#v", got, want)
	}
}

func TestCoerceNumber(t *testing.T) {
	t.Parallel()

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	tests := []struct {
		in   any
		want any
	}{
		{"42", int64(42)},
		{" -7 ", int64(-7)},
		{"+5", int64(5)},
		{"007", int64(7)},
		{"2.5", 2.5},
		{"1e3", 1000.0},
		{"123456789012345678901234567890", huge},
		{"abc", "abc"},
		{"", ""},
		{"nan", "nan"},
		{"inf", "inf"},
		{"0x10", "0x10"},
		{"1_000", "1_000"},
		{nil, nil},
		{true, true},
	}
	for _, tc := range tests {
		got := CoerceNumber(tc.in)
		if b, ok := tc.want.(*big.Int); ok {
			gb, ok := got.(*big.Int)
			if !ok || gb.Cmp(b) != 0 {
				t.Errorf("CoerceNumber(%#v) = %#v, want %v", tc.in, got, b)
			}
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("CoerceNumber(%#v) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestFold_List(t *testing.T) {
	t.Parallel()

	in := schema.Positional(4)
	f := NewFold(1, in, false)
	spec := f.Spec(in)
	if want := (schema.Spec{{Name: "C1", Type: "text"}, {Name: "Cjlist", Type: "text"}}); !spec.Equal(want) {
		t.Fatalf("spec = %v, want %v", spec, want)
	}

	got, err := f.Apply(record.Row{"a", "1", "x<y>", nil})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := record.Row{"a", `[1,"x<y>",null]`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("row = %#v, want %#v", got, want)
	}
}

func TestFold_Dict(t *testing.T) {
	t.Parallel()

	in := schema.Spec{{Name: "id", Type: "text"}, {Name: "zeta", Type: "text"}, {Name: "alpha", Type: "text"}}
	f := NewFold(1, in, true)
	if spec := f.Spec(in); spec[1].Name != FoldDictColumn || len(spec) != 2 {
		t.Fatalf("spec = %v", spec)
	}

	got, err := f.Apply(record.Row{"k", "café", "2.5"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Keys stay in column order and non-ASCII is written literally.
	if want := `{"zeta":"café","alpha":2.5}`; got[1] != want {
		t.Fatalf("folded = %q, want %q", got[1], want)
	}
}

// Folding N leading columns and decoding the JSON field restores every
// trailing value (numbers as numbers).
func TestFold_RoundTrip(t *testing.T) {
	t.Parallel()

	row := record.Row{"p", "q", "10", "hello", "3.25", nil}
	for keep := 0; keep <= len(row)+1; keep++ {
		got, err := NewFold(keep, schema.Positional(len(row)), false).Apply(row)
		if err != nil {
			t.Fatalf("keep=%d: %v", keep, err)
		}
		n := min(keep, len(row))
		if !reflect.DeepEqual(got[:n], row[:n]) {
			t.Fatalf("keep=%d: leading fields changed: %v", keep, got)
		}
		var tail []any
		if err := json.Unmarshal([]byte(got[n].(string)), &tail); err != nil {
			t.Fatalf("keep=%d: folded field is not JSON: %v", keep, err)
		}
		if len(tail) != len(row)-n {
			t.Fatalf("keep=%d: tail has %d values, want %d", keep, len(tail), len(row)-n)
		}
		for i, v := range tail {
			orig := CoerceNumber(row[n+i])
			switch o := orig.(type) {
			case int64:
				if v != float64(o) {
					t.Fatalf("keep=%d: value %d = %v, want %v", keep, i, v, o)
				}
			default:
				if !reflect.DeepEqual(v, orig) {
					t.Fatalf("keep=%d: value %d = %#v, want %#v", keep, i, v, orig)
				}
			}
		}
	}
}

func TestFold_KeepBeyondWidth(t *testing.T) {
	t.Parallel()

	in := schema.Positional(2)
	f := NewFold(5, in, true)
	if spec := f.Spec(in); len(spec) != 3 || spec[2].Name != FoldDictColumn {
		t.Fatalf("spec = %v", spec)
	}
	got, err := f.Wrap(record.Slice(record.Row{"a", "b"})).Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if want := (record.Row{"a", "b", "{}"}); !reflect.DeepEqual(got, want) {
		t.Fatalf("row = %#v, want %#v", got, want)
	}
}
