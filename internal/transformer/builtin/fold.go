package builtin

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tabsource/internal/record"
	"tabsource/internal/schema"
)

// Folded column names.
const (
	FoldDictColumn = "Cjdict"
	FoldListColumn = "Cjlist"
)

// Fold keeps the first Keep fields of every row and packs the remaining ones
// into a single compact JSON text field. With Keys set the packed value is an
// object keyed by those names in order; otherwise it is a list. Trailing
// values pass through CoerceNumber first.
type Fold struct {
	Keep int
	Keys []string
}

// NewFold derives a Fold from the pre-fold schema. byName selects the object
// form, keyed by the trailing column names.
func NewFold(keep int, in schema.Spec, byName bool) Fold {
	f := Fold{Keep: keep}
	if byName {
		f.Keys = []string{}
		if keep < len(in) {
			f.Keys = in.Names()[keep:]
		}
	}
	return f
}

// Spec returns the schema of the folded rows.
func (f Fold) Spec(in schema.Spec) schema.Spec {
	n := min(f.Keep, len(in))
	out := append(in[:n:n].Clone(), schema.Column{Name: FoldListColumn, Type: schema.TypeText})
	if f.Keys != nil {
		out[n].Name = FoldDictColumn
	}
	return out
}

func (f Fold) Wrap(in record.Stream) record.Stream {
	return record.StreamFunc(func() (record.Row, error) {
		row, err := in.Next()
		if err != nil {
			return nil, err
		}
		return f.Apply(row)
	})
}

// Apply folds one row.
func (f Fold) Apply(row record.Row) (record.Row, error) {
	n := min(f.Keep, len(row))
	tail := row[n:]

	var (
		b   []byte
		err error
	)
	if f.Keys != nil {
		b, err = encodeObject(f.Keys, tail)
	} else {
		b, err = encodeList(tail)
	}
	if err != nil {
		return nil, fmt.Errorf("fold columns: %w", err)
	}

	out := make(record.Row, n+1)
	copy(out, row[:n])
	out[n] = string(b)
	return out, nil
}

func encodeList(vals []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(&buf, CoerceNumber(v)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// encodeObject pairs keys with vals up to the shorter of the two. A repeated
// key keeps its first position and its last value.
func encodeObject(keys []string, vals []any) ([]byte, error) {
	n := min(len(keys), len(vals))
	order := make([]string, 0, n)
	values := make(map[string]any, n)
	for i := 0; i < n; i++ {
		if _, seen := values[keys[i]]; !seen {
			order = append(order, keys[i])
		}
		values[keys[i]] = CoerceNumber(vals[i])
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeValue appends v as compact JSON with HTML characters left literal.
func writeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
