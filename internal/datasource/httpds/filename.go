package httpds

import (
	"fmt"
	"path"
	"regexp"

	"github.com/zeebo/xxh3"
)

// filenameCleaner collapses runs of characters other than letters, digits and
// dots into "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9.]+`)

// HashString returns a stable xxh3 hex digest of s.
func HashString(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}

// CacheFilename derives a deterministic, filesystem-safe file name for a
// cached copy of rawURL: the hash of the whole URL followed by the cleaned
// base name of its path, so the original extension is kept.
func CacheFilename(rawURL string) string {
	base := filenameCleaner.ReplaceAllString(path.Base(URLPath(rawURL)), "_")
	switch base {
	case "", ".", "_", "..":
		return HashString(rawURL)
	}
	return HashString(rawURL) + "-" + base
}
