package filetable

import (
	"log/slog"
	"net/http"

	"tabsource/internal/datasource"
	"tabsource/internal/parser"
)

// Option customizes a Table built by New.
type Option func(*Table)

// WithLogger sets the logger used for open and close events. A logger
// stored in the Open context with logging.WithLogger takes precedence.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

// WithTokenizer replaces the quote-aware delimited tokenizer. Fast mode
// always uses the quote-unaware splitter.
func WithTokenizer(tok parser.Tokenizer) Option {
	return func(t *Table) {
		if tok != nil {
			t.tokenizer = tok
		}
	}
}

// WithFetcher sets the client used for remote locations. When it also
// implements datasource.Sniffer, compression:t without a type sniffs the
// remote signature.
func WithFetcher(f datasource.Fetcher) Option {
	return func(t *Table) { t.fetcher = f }
}

// WithCacher sets the remote-to-local cache used for zip archives over the
// network.
func WithCacher(c datasource.Cacher) Option {
	return func(t *Table) { t.cacher = c }
}

// WithCacheDir sets the directory of the default cache. It has no effect
// together with WithCacher.
func WithCacheDir(dir string) Option {
	return func(t *Table) { t.cacheDir = dir }
}

// WithArchive replaces the zip archive opener.
func WithArchive(a datasource.ArchiveOpener) Option {
	return func(t *Table) {
		if a != nil {
			t.archive = a
		}
	}
}

// WithHeaders adds headers to every remote request of the table.
func WithHeaders(h http.Header) Option {
	return func(t *Table) {
		for k, vs := range h {
			for _, v := range vs {
				t.headers.Add(k, v)
			}
		}
	}
}

// WithDomainHeaders configures the default HTTP client to send extra
// headers to matching hosts (the key or any subdomain of it). It has no
// effect together with WithFetcher.
func WithDomainHeaders(m map[string]http.Header) Option {
	return func(t *Table) { t.domainHeaders = m }
}

// WithJob sets the job label attached to metrics. Default "tabsource".
func WithJob(job string) Option {
	return func(t *Table) {
		if job != "" {
			t.job = job
		}
	}
}
