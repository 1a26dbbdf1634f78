package config

import (
	"fmt"
	"sort"
	"strings"

	"tabsource/internal/charset"
	"tabsource/internal/decompress"
	"tabsource/internal/errs"
	"tabsource/internal/parser"
	"tabsource/internal/strict"
)

// DialectName is the value of the dialect option.
type DialectName string

const (
	DialectNone DialectName = ""
	DialectCSV  DialectName = "csv"
	DialectTSV  DialectName = "tsv"
	DialectJSON DialectName = "json"
	DialectLine DialectName = "line"
)

// Recognized option keys.
const (
	KeyLocation         = "location"
	KeyRemote           = "is_remote"
	KeyCompression      = "compression"
	KeyCompressionType  = "compressiontype"
	KeyHeader           = "header"
	KeyEncoding         = "encoding"
	KeyStrict           = "strict"
	KeyFast             = "fast"
	KeyToj              = "toj"
	KeyDelimiter        = "delimiter"
	KeyDialect          = "dialect"
	KeyDoubleQuote      = "doublequote"
	KeyEscapeChar       = "escapechar"
	KeyLineTerminator   = "lineterminator"
	KeyQuoteChar        = "quotechar"
	KeyQuoting          = "quoting"
	KeySkipInitialSpace = "skipinitialspace"
)

var aliases = map[string]string{
	"file":             KeyLocation,
	"url":              KeyLocation,
	"compression_kind": KeyCompressionType,
}

var known = map[string]bool{
	KeyLocation: true, KeyRemote: true, KeyCompression: true, KeyCompressionType: true,
	KeyHeader: true, KeyEncoding: true, KeyStrict: true, KeyFast: true, KeyToj: true,
	KeyDelimiter: true, KeyDialect: true, KeyDoubleQuote: true, KeyEscapeChar: true,
	KeyLineTerminator: true, KeyQuoteChar: true, KeyQuoting: true, KeySkipInitialSpace: true,
}

// formatKeys are the options that customize the delimited-text format. Any of
// them being present selects the delimited dialect for files without a
// recognized extension.
var formatKeys = []string{
	KeyDelimiter, KeyDoubleQuote, KeyEscapeChar, KeyLineTerminator,
	KeyQuoteChar, KeyQuoting, KeySkipInitialSpace, KeyDialect,
}

// Table is the typed configuration of one file table.
type Table struct {
	Location string
	Remote   bool

	// Compression is the explicit compression flag. CompressionKind is only
	// meaningful when CompressionKindSet is true.
	Compression        bool
	CompressionKind    decompress.Kind
	CompressionKindSet bool

	Header   bool
	Encoding charset.Codec

	Strict    strict.Mode
	StrictSet bool
	Fast      bool

	// Toj is the number of leading columns kept as-is; negative disables
	// folding.
	Toj int

	Dialect DialectName

	format    parser.Format
	formatSet map[string]bool
}

// HasFormatOptions reports whether any delimited-format option was supplied.
func (t Table) HasFormatOptions() bool { return len(t.formatSet) > 0 }

// FormatOptionSet reports whether the named format option was supplied.
func (t Table) FormatOptionSet(key string) bool { return t.formatSet[key] }

// ApplyFormat returns base with every supplied format option applied on top.
func (t Table) ApplyFormat(base parser.Format) parser.Format {
	out := base
	if t.formatSet[KeyDelimiter] {
		out.Delimiter = t.format.Delimiter
	}
	if t.formatSet[KeyQuoteChar] {
		out.Quote = t.format.Quote
	}
	if t.formatSet[KeyEscapeChar] {
		out.Escape = t.format.Escape
	}
	if t.formatSet[KeyDoubleQuote] {
		out.DoubleQuote = t.format.DoubleQuote
	}
	if t.formatSet[KeyLineTerminator] {
		out.LineTerminator = t.format.LineTerminator
	}
	if t.formatSet[KeyQuoting] {
		out.Quoting = t.format.Quoting
	}
	if t.formatSet[KeySkipInitialSpace] {
		out.SkipInitialSpace = t.format.SkipInitialSpace
	}
	return out
}

// Parse validates o and builds the Table. Keys are matched case-insensitively
// after alias resolution; any unknown key is a *errs.ConfigError naming it.
func Parse(o Options) (Table, error) {
	norm := make(Options, len(o))
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		canon := strings.ToLower(strings.TrimSpace(k))
		if a, ok := aliases[canon]; ok {
			canon = a
		}
		if !known[canon] {
			return Table{}, errs.Configf(k, "unknown option")
		}
		if _, dup := norm[canon]; dup {
			return Table{}, errs.Configf(k, "given more than once")
		}
		norm[canon] = o[k]
	}

	t := Table{
		Toj:       -1,
		Encoding:  charset.MustLookup(charset.Default),
		format:    parser.DefaultCSV(),
		formatSet: map[string]bool{},
	}

	t.Location = strings.TrimSpace(norm.String(KeyLocation, ""))
	if t.Location == "" {
		return Table{}, errs.Configf("", "a file name or URL should be provided")
	}

	var err error
	if norm.Has(KeyRemote) {
		if t.Remote, err = norm.Bool(KeyRemote, false); err != nil {
			return Table{}, errs.Configf(KeyRemote, "%v", err)
		}
	} else {
		t.Remote = IsRemoteLocation(t.Location)
	}

	if t.Compression, err = norm.Bool(KeyCompression, false); err != nil {
		return Table{}, errs.Configf(KeyCompression, "%v", err)
	}
	if norm.Has(KeyCompressionType) {
		k, err := decompress.ParseKind(norm.String(KeyCompressionType, ""))
		if err != nil || k == decompress.None {
			return Table{}, errs.Configf(KeyCompressionType, "unsupported compression type %q", norm.String(KeyCompressionType, ""))
		}
		t.CompressionKind, t.CompressionKindSet = k, true
	}

	if t.Header, err = norm.Bool(KeyHeader, false); err != nil {
		return Table{}, errs.Configf(KeyHeader, "%v", err)
	}
	if norm.Has(KeyEncoding) {
		c, err := charset.Lookup(norm.String(KeyEncoding, ""))
		if err != nil {
			return Table{}, errs.Configf(KeyEncoding, "%v", err)
		}
		t.Encoding = c
	}

	if t.Fast, err = norm.Bool(KeyFast, false); err != nil {
		return Table{}, errs.Configf(KeyFast, "%v", err)
	}
	if norm.Has(KeyStrict) {
		m, err := strict.ParseMode(norm.String(KeyStrict, ""))
		if err != nil {
			return Table{}, errs.Configf(KeyStrict, "%v", err)
		}
		t.Strict, t.StrictSet = m, true
	} else if t.Fast {
		t.Strict = strict.Unchecked
	}

	if t.Toj, err = norm.Int(KeyToj, -1); err != nil {
		return Table{}, errs.Configf(KeyToj, "%v", err)
	}

	if err := parseFormat(norm, &t); err != nil {
		return Table{}, err
	}
	return t, nil
}

func parseFormat(o Options, t *Table) error {
	for _, k := range formatKeys {
		if o.Has(k) {
			t.formatSet[k] = true
		}
	}

	if o.Has(KeyDialect) {
		switch d := DialectName(strings.ToLower(strings.TrimSpace(o.String(KeyDialect, "")))); d {
		case DialectCSV, DialectTSV, DialectJSON, DialectLine:
			t.Dialect = d
		default:
			return errs.Configf(KeyDialect, "unsupported dialect %q", o.String(KeyDialect, ""))
		}
	}

	var err error
	if o.Has(KeyDelimiter) {
		if t.format.Delimiter, err = singleRune(o.String(KeyDelimiter, ""), false); err != nil {
			return errs.Configf(KeyDelimiter, "%v", err)
		}
	}
	if o.Has(KeyQuoteChar) {
		if t.format.Quote, err = singleRune(o.String(KeyQuoteChar, ""), false); err != nil {
			return errs.Configf(KeyQuoteChar, "%v", err)
		}
	}
	if o.Has(KeyEscapeChar) {
		if t.format.Escape, err = singleRune(o.String(KeyEscapeChar, ""), true); err != nil {
			return errs.Configf(KeyEscapeChar, "%v", err)
		}
	}
	if t.format.DoubleQuote, err = o.Bool(KeyDoubleQuote, true); err != nil {
		return errs.Configf(KeyDoubleQuote, "%v", err)
	}
	if t.format.SkipInitialSpace, err = o.Bool(KeySkipInitialSpace, false); err != nil {
		return errs.Configf(KeySkipInitialSpace, "%v", err)
	}
	if o.Has(KeyLineTerminator) {
		lt := unescape(o.String(KeyLineTerminator, ""))
		if lt == "" {
			return errs.Configf(KeyLineTerminator, "must not be empty")
		}
		t.format.LineTerminator = lt
	}
	if o.Has(KeyQuoting) {
		if t.format.Quoting, err = parseQuoting(o.String(KeyQuoting, "")); err != nil {
			return errs.Configf(KeyQuoting, "%v", err)
		}
	}

	// The quote-aware tokenizer reads only '"' quotes and no escape
	// character; fast mode and QUOTE_NONE split plainly.
	if !t.Fast && t.format.Quoting != parser.QuoteNone {
		if t.formatSet[KeyQuoteChar] && t.format.Quote != '"' {
			return errs.Configf(KeyQuoteChar, "quotechar %q is not supported; only '\"' is", t.format.Quote)
		}
		if t.format.Escape != 0 {
			return errs.Configf(KeyEscapeChar, "escapechar is only supported together with quoting NONE")
		}
	}
	return nil
}

// singleRune parses a one-character option. Backslash escapes and the names
// "tab" and "space" are accepted.
func singleRune(s string, allowEmpty bool) (rune, error) {
	switch strings.ToLower(s) {
	case "tab":
		return '\t', nil
	case "space":
		return ' ', nil
	}
	r := []rune(unescape(s))
	switch {
	case len(r) == 0 && allowEmpty:
		return 0, nil
	case len(r) != 1:
		return 0, fmt.Errorf("%q must be a single character", s)
	}
	return r[0], nil
}

func unescape(s string) string {
	return strings.NewReplacer(`\t`, "\t", `\r`, "\r", `\n`, "\n", `\\`, `\`).Replace(s)
}

// parseQuoting accepts MINIMAL, ALL, NONNUMERIC and NONE, optionally with a
// csv.QUOTE_ or QUOTE_ prefix, or their numeric codes 0..3.
func parseQuoting(s string) (parser.Quoting, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "CSV.")
	v = strings.TrimPrefix(v, "QUOTE_")
	switch v {
	case "MINIMAL", "0":
		return parser.QuoteMinimal, nil
	case "ALL", "1":
		return parser.QuoteAll, nil
	case "NONNUMERIC", "2":
		return parser.QuoteNonNumeric, nil
	case "NONE", "3":
		return parser.QuoteNone, nil
	}
	return parser.QuoteMinimal, fmt.Errorf("unknown quoting %q", s)
}

// IsRemoteLocation reports whether loc names a network resource.
func IsRemoteLocation(loc string) bool {
	l := strings.ToLower(loc)
	for _, p := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}
