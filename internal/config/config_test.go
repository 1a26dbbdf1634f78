package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"tabsource/internal/decompress"
	"tabsource/internal/errs"
	"tabsource/internal/parser"
	"tabsource/internal/strict"
)

func TestOptions_UnmarshalJSON_Null(t *testing.T) {
	t.Parallel()

	var holder struct {
		Options Options `json:"options"`
	}
	if err := json.Unmarshal([]byte(`{"options":null}`), &holder); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if holder.Options == nil || len(holder.Options) != 0 {
		t.Fatalf("Options = %#v, want empty non-nil map", holder.Options)
	}
}

func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	o := Options{"s": "x", "n": float64(3), "ns": " 4 ", "frac": 2.5, "b": "yes", "bb": true, "bad": "maybe"}
	if got := o.String("n", ""); got != "3" {
		t.Errorf("String(n) = %q", got)
	}
	if got, err := o.Int("ns", 0); err != nil || got != 4 {
		t.Errorf("Int(ns) = %d, %v", got, err)
	}
	if _, err := o.Int("frac", 0); err == nil {
		t.Errorf("Int(frac) expected error")
	}
	if got, err := o.Int("missing", 7); err != nil || got != 7 {
		t.Errorf("Int(missing) = %d, %v", got, err)
	}
	for _, k := range []string{"b", "bb"} {
		if got, err := o.Bool(k, false); err != nil || !got {
			t.Errorf("Bool(%s) = %v, %v", k, got, err)
		}
	}
	if _, err := o.Bool("bad", false); err == nil {
		t.Errorf("Bool(bad) expected error")
	}
}

func TestParseBool_Textual(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{"t": true, "F": false, "true": true, "0": false, "1": true, "on": true, "off": false, "No": false} {
		got, err := ParseBool(in)
		if err != nil || got != want {
			t.Errorf("ParseBool(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	tbl, err := Parse(Options{"file": "data.txt"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Location != "data.txt" || tbl.Remote || tbl.Header || tbl.Fast || tbl.Compression {
		t.Fatalf("Table = %+v", tbl)
	}
	if tbl.Strict != strict.FailFast || tbl.StrictSet || tbl.Toj != -1 {
		t.Fatalf("strict/toj defaults = %v/%v/%d", tbl.Strict, tbl.StrictSet, tbl.Toj)
	}
	if tbl.Encoding.Name() != "utf-8" || tbl.HasFormatOptions() {
		t.Fatalf("encoding/format defaults = %s/%v", tbl.Encoding.Name(), tbl.HasFormatOptions())
	}
}

func TestParse_Values(t *testing.T) {
	t.Parallel()

	tbl, err := Parse(Options{
		"url":              "HTTPS://example.org/x",
		"Header":           "t",
		"strict":           "-1",
		"toj":              float64(2),
		"encoding":         "latin_1",
		"compression":      "t",
		"compression_kind": "gz",
		"delimiter":        `\t`,
		"quoting":          "csv.QUOTE_NONE",
		"escapechar":       `\\`,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !tbl.Remote || !tbl.Header || tbl.Strict != strict.ReportInvalid || tbl.Toj != 2 {
		t.Fatalf("Table = %+v", tbl)
	}
	if !tbl.CompressionKindSet || tbl.CompressionKind != decompress.Gzip {
		t.Fatalf("compression = %v/%v", tbl.CompressionKind, tbl.CompressionKindSet)
	}
	f := tbl.ApplyFormat(parser.DefaultCSV())
	want := parser.DefaultCSV()
	want.Delimiter, want.Quoting, want.Escape = '\t', parser.QuoteNone, '\\'
	if !reflect.DeepEqual(f, want) {
		t.Fatalf("format = %+v, want %+v", f, want)
	}
	if !tbl.FormatOptionSet(KeyDelimiter) || tbl.FormatOptionSet(KeyQuoteChar) {
		t.Fatalf("format keys misreported")
	}
}

func TestParse_FastWithoutStrictIsUnchecked(t *testing.T) {
	t.Parallel()

	tbl, err := Parse(Options{"location": "x.csv", "fast": "1"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Strict != strict.Unchecked || tbl.HasFormatOptions() {
		t.Fatalf("strict = %v, format options = %v", tbl.Strict, tbl.HasFormatOptions())
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Options
		key  string
	}{
		{"unknown_key", Options{"location": "x", "colour": "red"}, "colour"},
		{"no_location", Options{"header": "t"}, ""},
		{"bad_strict", Options{"location": "x", "strict": "2"}, KeyStrict},
		{"bad_toj", Options{"location": "x", "toj": "many"}, KeyToj},
		{"bad_bool", Options{"location": "x", "header": "perhaps"}, KeyHeader},
		{"bad_encoding", Options{"location": "x", "encoding": "klingon"}, KeyEncoding},
		{"bad_dialect", Options{"location": "x", "dialect": "excel"}, KeyDialect},
		{"long_delimiter", Options{"location": "x", "delimiter": ";;"}, KeyDelimiter},
		{"bad_quoting", Options{"location": "x", "quoting": "SOMETIMES"}, KeyQuoting},
		{"quotechar_unsupported", Options{"location": "x", "quotechar": "'"}, KeyQuoteChar},
		{"escape_needs_quote_none", Options{"location": "x", "escapechar": `\\`}, KeyEscapeChar},
		{"bad_compression", Options{"location": "x", "compressiontype": "rar"}, KeyCompressionType},
		{"alias_duplicate", Options{"location": "x", "file": "y"}, "location"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.opt)
			var cerr *errs.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if cerr.Key != tc.key {
				t.Fatalf("ConfigError.Key = %q, want %q", cerr.Key, tc.key)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	o, err := ParseArgs([]string{"https://example.org/a.csv", "header:t", "strict=0", "delimiter::"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	want := Options{"location": "https://example.org/a.csv", "header": "t", "strict": "0", "delimiter": ":"}
	if !reflect.DeepEqual(o, want) {
		t.Fatalf("ParseArgs = %#v, want %#v", o, want)
	}

	o, err = ParseArgs([]string{"url:http://x/y.tsv", "fast:1"})
	if err != nil || o["url"] != "http://x/y.tsv" {
		t.Fatalf("ParseArgs(url:) = %#v, %v", o, err)
	}

	if _, err := ParseArgs([]string{"a.csv", "b.csv"}); err == nil {
		t.Fatalf("two locations accepted")
	}
	if _, err := ParseArgs([]string{"toj:1", "toj:2"}); err == nil {
		t.Fatalf("duplicate key accepted")
	}
}

func TestIsRemoteLocation(t *testing.T) {
	t.Parallel()

	for loc, want := range map[string]bool{
		"http://a/b": true, "HTTPS://a": true, "ftp://h/f": true,
		"/tmp/file.csv": false, "file.csv": false, "s3://bucket/k": false,
	} {
		if got := IsRemoteLocation(loc); got != want {
			t.Errorf("IsRemoteLocation(%q) = %v", loc, got)
		}
	}
}
