// Package dialect decides how a source's decoded text maps to rows.
//
// The result is one of three variants: JSONLines, Delimited or LineMode.
// Resolution is done once per table, from the logical file name (compression
// suffix already removed) and the parsed options:
//
//  1. a .json/.js extension, or dialect:json, selects JSONLines
//  2. a .csv extension selects comma-delimited text
//  3. a .tsv extension selects tab-delimited text
//  4. header:t or any delimited-format option selects delimited text, comma
//     by default and customized by the options
//  5. anything else is LineMode, one column per line
//
// For .csv and .tsv the extension wins over an explicit csv/tsv dialect
// option, and fast mode forces the matching delimiter.
package dialect

import (
	"fmt"
	"path"
	"strings"

	"tabsource/internal/config"
	"tabsource/internal/parser"
)

// Dialect is the closed set of record dialects.
type Dialect interface {
	fmt.Stringer
	dialect()
}

// JSONLines reads one JSON value per line; the first line declares the schema.
type JSONLines struct{}

// Delimited reads delimiter-separated fields. Fast selects the quote-unaware
// splitter and skips NULL normalization.
type Delimited struct {
	Format parser.Format
	Fast   bool
}

// LineMode reads every line as a single field.
type LineMode struct{}

func (JSONLines) dialect() {}
func (Delimited) dialect() {}
func (LineMode) dialect()  {}

func (JSONLines) String() string { return "json" }
func (LineMode) String() string  { return "line" }

func (d Delimited) String() string {
	name := "delimited"
	if d.Fast {
		name = "delimited-fast"
	}
	return fmt.Sprintf("%s(%q)", name, d.Format.Delimiter)
}

// Resolve applies the priority rules to filename and cfg.
func Resolve(filename string, cfg config.Table) Dialect {
	ext := strings.ToLower(path.Ext(filename))

	if ext == ".json" || ext == ".js" || cfg.Dialect == config.DialectJSON {
		return JSONLines{}
	}

	switch ext {
	case ".csv":
		return delimited(parser.DefaultCSV(), ',', cfg)
	case ".tsv":
		return delimited(parser.DefaultTSV(), '\t', cfg)
	}

	if cfg.Dialect == config.DialectLine {
		return LineMode{}
	}

	if cfg.Header || cfg.HasFormatOptions() {
		base := parser.DefaultCSV()
		if cfg.Dialect == config.DialectTSV {
			base = parser.DefaultTSV()
		}
		return delimited(base, 0, cfg)
	}
	return LineMode{}
}

// delimited applies cfg on top of base. A non-zero forced delimiter overrides
// the delimiter option in fast mode.
func delimited(base parser.Format, forced rune, cfg config.Table) Delimited {
	f := cfg.ApplyFormat(base)
	if cfg.Fast && forced != 0 {
		f.Delimiter = forced
	}
	return Delimited{Format: f, Fast: cfg.Fast}
}
