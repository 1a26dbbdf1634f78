package config

import (
	"fmt"
	"strings"
)

// ParseArgs builds Options from operator-style arguments:
//
//	data.csv.gz header:t strict=0 toj:2
//	https://example.org/x.tsv encoding:latin_1
//
// Each token is key:value or key=value, split at the first separator. A token
// without a separator, or whose "separator" opens a URL scheme (a "//" right
// after the colon), is the location; at most one location may be given.
func ParseArgs(args []string) (Options, error) {
	o := Options{}
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		i := strings.IndexAny(a, ":=")
		if i <= 0 || strings.HasPrefix(a[i:], "://") {
			if o.Has(KeyLocation) {
				return nil, fmt.Errorf("more than one location given: %q and %q", o[KeyLocation], a)
			}
			o[KeyLocation] = a
			continue
		}
		key := strings.TrimSpace(a[:i])
		if o.Has(key) {
			return nil, fmt.Errorf("option %q given more than once", key)
		}
		o[key] = a[i+1:]
	}
	return o, nil
}
