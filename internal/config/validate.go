package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"tabsource/internal/decompress"
	"tabsource/internal/parser"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration that cannot be opened.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration that opens but probably does
	// not do what was meant.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding. Path names the option involved.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Lint performs static checks over a parsed Table. Parse already rejects
// malformed values; Lint reports combinations that are legal but
// contradictory or ignored.
func Lint(t Table) []Issue {
	var issues []Issue

	json := t.Dialect == DialectJSON || hasJSONExt(t.Location)

	if t.Fast && !json {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyFast,
			Message:  "fast mode disables NULL normalization and quote handling",
		})
	}
	if json && (len(t.formatSet) > 1 || (t.HasFormatOptions() && !t.FormatOptionSet(KeyDialect))) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "dialect",
			Message:  "delimited-format options are ignored for JSON-lines sources",
		})
	}
	if json && t.Header {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyHeader,
			Message:  "header is ignored for JSON-lines sources; the first line declares the schema",
		})
	}
	if t.Toj == 0 && !t.Header {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyToj,
			Message:  "toj:0 without a header folds every column into one JSON list",
		})
	}

	f := t.ApplyFormat(parser.DefaultCSV())
	if t.FormatOptionSet(KeyDoubleQuote) && !f.DoubleQuote {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyDoubleQuote,
			Message:  "doublequote:false is not honored; doubled quotes are always read as one",
		})
	}

	if t.CompressionKindSet && !t.Compression {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyCompressionType,
			Message:  "compressiontype has no effect without compression:t",
		})
	}
	if t.Compression && t.CompressionKindSet && t.CompressionKind == decompress.Zip && t.Remote {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     KeyCompressionType,
			Message:  "remote zip archives are downloaded to a local cache before reading",
		})
	}
	return issues
}

func hasJSONExt(loc string) bool {
	switch ext := lowerExt(loc); ext {
	case ".json", ".js":
		return true
	}
	return false
}

// lowerExt returns the lower-cased extension of loc's logical file name: the
// URL path for remote locations, with any compression suffix removed.
func lowerExt(loc string) string {
	name := loc
	if u, err := url.Parse(loc); err == nil && len(u.Scheme) > 1 && u.Path != "" {
		name = u.Path
	}
	name = decompress.StripSuffix(name, decompress.FromSuffix(name))
	return strings.ToLower(path.Ext(name))
}
