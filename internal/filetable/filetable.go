// Package filetable opens a tabular byte source and exposes it as a lazy
// sequence of rows.
//
// A Table is built once from options and may be opened any number of times;
// every Open re-reads the source from the start and returns an independent
// Cursor. The pipeline behind a cursor is
//
//	source → decompress → decode → record stream → schema → NULL
//	normalization → strictness filter → fold
//
// Each stage pulls from the one before it. Nothing runs in the background
// and at most one row is read ahead, to derive the schema of sources without
// a header.
//
// Typical use:
//
//	t, err := filetable.New(config.Options{"location": "data.csv", "header": "t"})
//	if err != nil {
//	    return err
//	}
//	err = filetable.Each(ctx, t, func(row record.Row) error {
//	    fmt.Println(row.Join("\t"))
//	    return nil
//	})
package filetable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"tabsource/internal/config"
	"tabsource/internal/datasource"
	"tabsource/internal/datasource/archive"
	"tabsource/internal/datasource/httpds"
	"tabsource/internal/decompress"
	"tabsource/internal/dialect"
	"tabsource/internal/errs"
	"tabsource/internal/logging"
	"tabsource/internal/metrics"
	"tabsource/internal/parser"
	"tabsource/internal/parser/csv"
	"tabsource/internal/parser/json"
	"tabsource/internal/parser/line"
	"tabsource/internal/record"
	"tabsource/internal/schema"
	"tabsource/internal/strict"
	"tabsource/internal/transformer"
	"tabsource/internal/transformer/builtin"
)

// Table is a configured file table.
type Table struct {
	cfg  config.Table
	desc datasource.Descriptor

	log       *slog.Logger
	job       string
	tokenizer parser.Tokenizer
	fetcher   datasource.Fetcher
	cacher    datasource.Cacher
	archive   datasource.ArchiveOpener
	headers   http.Header

	cacheDir      string
	domainHeaders map[string]http.Header

	mu     sync.Mutex
	spec   schema.Spec // frozen by the first successful Open
	cached []string    // local copies of remote archives
}

// New validates opts and builds a Table. Every configuration problem is
// reported here as *errs.ConfigError, before any byte is read.
func New(opts config.Options, options ...Option) (*Table, error) {
	cfg, err := config.Parse(opts)
	if err != nil {
		return nil, err
	}

	t := &Table{
		cfg:       cfg,
		log:       slog.Default(),
		job:       "tabsource",
		tokenizer: csv.Tokenizer{},
		archive:   archive.Zip{},
		headers:   http.Header{},
	}
	for _, o := range options {
		o(t)
	}
	if t.fetcher == nil {
		t.fetcher = httpds.NewClient(httpds.Config{MaxRetries: 3, DomainHeaders: t.domainHeaders})
	}
	if t.cacher == nil {
		t.cacher = httpds.NewCache(t.fetcher, t.cacheDir)
	}

	t.desc = datasource.Descriptor{
		Location: cfg.Location,
		Remote:   cfg.Remote,
		Dialect:  cfg.Dialect,
	}
	switch {
	case cfg.Compression && cfg.CompressionKindSet:
		t.desc.Compression = cfg.CompressionKind
	case cfg.Remote:
		t.desc.Compression = decompress.FromSuffix(httpds.URLPath(cfg.Location))
	default:
		t.desc.Compression = decompress.FromSuffix(cfg.Location)
	}
	return t, nil
}

// Config returns the parsed configuration.
func (t *Table) Config() config.Table { return t.cfg }

// Descriptor describes the source as far as it is known before opening.
// Compression detected at open time (magic bytes, response headers) is not
// reflected here.
func (t *Table) Descriptor() datasource.Descriptor { return t.desc }

// Describe returns a copy of the column description. It fails with
// *errs.SequencingError until the table has been opened once.
func (t *Table) Describe() (schema.Spec, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spec == nil {
		return nil, &errs.SequencingError{Msg: "describe called before the table was opened"}
	}
	return t.spec.Clone(), nil
}

// Open opens the source and builds a new Cursor over it. Source failures
// are *errs.SourceOpenError; schema and encoding failures on the first rows
// keep their own types. A spec that differs from the one frozen by an
// earlier Open is an *errs.SchemaError.
func (t *Table) Open(ctx context.Context) (cur *Cursor, err error) {
	start := time.Now()
	log := logging.FromContext(ctx, t.log)
	dialectName := ""
	defer func() {
		metrics.RecordOpen(t.job, dialectName, err, time.Since(start))
	}()

	src, err := t.openSource(ctx, log)
	if err != nil {
		return nil, &errs.SourceOpenError{Location: t.cfg.Location, Err: err}
	}
	d := dialect.Resolve(src.name, t.cfg)
	dialectName = kindOf(d)

	c := &Cursor{
		id:  uuid.NewString(),
		job: t.job,
		src: src.rc,
	}
	spec, stream, err := t.pipeline(d, src.rc, c)
	if err != nil {
		src.rc.Close()
		return nil, err
	}

	t.mu.Lock()
	switch {
	case t.spec == nil:
		t.spec = spec.Clone()
	case !t.spec.Equal(spec):
		frozen := t.spec
		t.mu.Unlock()
		src.rc.Close()
		return nil, &errs.SchemaError{Msg: fmt.Sprintf("schema changed from [%s] to [%s]", frozen, spec)}
	}
	t.mu.Unlock()

	c.spec = spec
	c.stream = stream
	c.log = log.With("cursor", c.id)
	c.log.Debug("table opened",
		"location", t.cfg.Location,
		"dialect", d.String(),
		"compression", src.kind.String(),
		"strict", t.cfg.Strict.String(),
		"columns", len(spec),
	)
	return c, nil
}

// pipeline turns the decompressed source into the schema and the row
// stream of one cursor.
func (t *Table) pipeline(d dialect.Dialect, r io.Reader, c *Cursor) (schema.Spec, record.Stream, error) {
	enc := t.cfg.Encoding
	text := enc.Reader(r)

	var (
		spec   schema.Spec
		stream record.Stream
	)
	switch d := d.(type) {
	case dialect.JSONLines:
		s, rows, err := json.Open(text, enc)
		if err != nil {
			return nil, nil, err
		}
		spec, stream = s, rows
		// JSON lines imply fast mode: width is only checked on request.
		if t.cfg.StrictSet {
			spec, stream = t.filter(stream, spec, false, lineSource(rows), c)
		}

	case dialect.LineMode:
		spec, stream = line.Spec(), line.Stream(text, enc)

	case dialect.Delimited:
		tok := t.tokenizer
		if d.Fast {
			tok = csv.Plain{}
		}
		fr, err := tok.Split(text, d.Format)
		if err != nil {
			return nil, nil, &errs.ConfigError{Msg: err.Error()}
		}
		stream = csv.Records(fr, enc)
		lines := lineSource(stream)
		if !d.Fast {
			stream = builtin.Nullify{}.Wrap(stream)
		}

		if t.cfg.Header {
			row, err := stream.Next()
			switch {
			case err == io.EOF:
				spec = schema.Spec{}
			case err != nil:
				return nil, nil, err
			default:
				spec = schema.FromHeader(row)
			}
		} else {
			p := record.NewPeekable(stream)
			row, err := p.Peek()
			switch {
			case err == io.EOF:
				spec = schema.Spec{}
			case err != nil:
				return nil, nil, err
			default:
				spec = schema.Positional(len(row))
			}
			stream = p
		}
		spec, stream = t.filter(stream, spec, t.cfg.Header, lines, c)
	}

	if t.cfg.Toj >= 0 {
		fold := builtin.NewFold(t.cfg.Toj, spec, t.cfg.Header)
		stream = transformer.Chain{fold}.Wrap(stream)
		spec = fold.Spec(spec)
	}
	return spec, stream, nil
}

// filter wraps stream with the configured strictness and returns the
// resulting schema. lines, when not nil, reports the source line of the row
// just read.
func (t *Table) filter(stream record.Stream, spec schema.Spec, headerConsumed bool, lines func() int, c *Cursor) (schema.Spec, record.Stream) {
	mode := t.cfg.Strict
	if mode == strict.Unchecked {
		return spec, stream
	}
	f := strict.New(stream, mode, len(spec), headerConsumed).Observe(strict.Observer{
		Dropped:  func() { c.dropped++ },
		Reported: func() { c.reported++ },
	}).Lines(lines)
	if mode == strict.ReportInvalid {
		spec = strict.ReportSpec()
	}
	return spec, f
}

// Destroy removes the local copies of remote archives made by Open. Call
// it after every cursor of the table is closed.
func (t *Table) Destroy() error {
	t.mu.Lock()
	paths := t.cached
	t.cached = nil
	t.mu.Unlock()

	var errList []error
	for _, p := range paths {
		if err := t.cacher.Remove(p); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Each opens t, calls fn for every row and closes the cursor on every path.
// An error returned by fn stops the iteration and is returned as is.
func Each(ctx context.Context, t *Table, fn func(record.Row) error) (err error) {
	cur, err := t.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cur.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		row, err := cur.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// lineSource returns the line reporter of a record stream, or nil when it
// has none.
func lineSource(s record.Stream) func() int {
	if l, ok := s.(parser.Liner); ok {
		return l.Line
	}
	return nil
}

// kindOf is the dialect label used in metrics.
func kindOf(d dialect.Dialect) string {
	switch d.(type) {
	case dialect.JSONLines:
		return "json"
	case dialect.Delimited:
		return "delimited"
	default:
		return "line"
	}
}
