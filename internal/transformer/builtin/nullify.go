package builtin

import (
	"strings"

	"tabsource/internal/record"
)

// Nullify replaces fields spelled NULL in any letter case with nil. Only
// whole-field matches count; other values, including "", are kept.
type Nullify struct{}

func (Nullify) Wrap(in record.Stream) record.Stream {
	return record.StreamFunc(func() (record.Row, error) {
		row, err := in.Next()
		if err != nil {
			return nil, err
		}
		for i, v := range row {
			if s, ok := v.(string); ok && len(s) == len(record.NullText) && strings.EqualFold(s, record.NullText) {
				row[i] = nil
			}
		}
		return row, nil
	})
}
