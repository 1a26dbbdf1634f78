package filetable

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"tabsource/internal/datasource"
	"tabsource/internal/datasource/file"
	"tabsource/internal/datasource/httpds"
	"tabsource/internal/decompress"
)

// opened is a byte source ready for character decoding.
type opened struct {
	rc   io.ReadCloser
	name string // logical file name used for dialect resolution
	kind decompress.Kind
}

// openSource opens the location and undoes its compression. Errors are not
// yet wrapped in errs.SourceOpenError.
func (t *Table) openSource(ctx context.Context, log *slog.Logger) (opened, error) {
	loc := t.cfg.Location
	name := loc
	if t.cfg.Remote {
		name = httpds.URLPath(loc)
	}

	kind, err := t.compressionKind(ctx, name)
	if err != nil {
		return opened{}, err
	}

	if kind == decompress.Zip {
		path := loc
		if t.cfg.Remote {
			if path, err = t.cacheRemote(ctx); err != nil {
				return opened{}, err
			}
			log.Debug("remote archive cached", "location", loc, "path", path)
		}
		rc, err := t.archive.OpenArchive(path)
		if err != nil {
			return opened{}, err
		}
		return opened{rc: rc, name: stripZip(name), kind: kind}, nil
	}

	var src datasource.Source = file.NewLocal(loc)
	if t.cfg.Remote {
		src = datasource.SourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
			hdr, body, err := t.fetcher.Fetch(ctx, loc, t.headers)
			if err != nil {
				return nil, err
			}
			if kind == decompress.None && httpds.IsGzipped(hdr) {
				kind = decompress.Gzip
			}
			return body, nil
		})
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return opened{}, err
	}

	out, err := decompress.Wrap(rc, kind)
	if err != nil {
		rc.Close()
		return opened{}, err
	}
	return opened{rc: out, name: decompress.StripSuffix(name, kind), kind: kind}, nil
}

// compressionKind decides the compression of the source before it is
// opened. An explicit type needs compression:t. A compression suffix wins
// next; compression:t alone sniffs the leading bytes and falls back to zip.
func (t *Table) compressionKind(ctx context.Context, name string) (decompress.Kind, error) {
	if t.cfg.Compression && t.cfg.CompressionKindSet {
		return t.cfg.CompressionKind, nil
	}
	if k := decompress.FromSuffix(name); k != decompress.None {
		return k, nil
	}
	if !t.cfg.Compression {
		return decompress.None, nil
	}

	head, err := t.head(ctx)
	if err != nil {
		return decompress.None, err
	}
	if k := decompress.DetectMagic(head); k != decompress.None {
		return k, nil
	}
	return decompress.Zip, nil
}

// head returns the leading bytes of the source, or nil when the remote
// fetcher cannot read a prefix.
func (t *Table) head(ctx context.Context) ([]byte, error) {
	if !t.cfg.Remote {
		return file.NewLocal(t.cfg.Location).Head(decompress.MagicLen)
	}
	s, ok := t.fetcher.(datasource.Sniffer)
	if !ok {
		return nil, nil
	}
	b, err := s.FetchFirstBytes(ctx, t.cfg.Location, decompress.MagicLen, t.headers)
	if err != nil {
		return nil, fmt.Errorf("sniff compression: %w", err)
	}
	return b, nil
}

// cacheRemote copies the remote archive to local disk and remembers the
// path for Destroy.
func (t *Table) cacheRemote(ctx context.Context) (string, error) {
	p, err := t.cacher.Cache(ctx, t.cfg.Location, t.headers)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	if !slices.Contains(t.cached, p) {
		t.cached = append(t.cached, p)
	}
	t.mu.Unlock()
	return p, nil
}

// stripZip removes a trailing ".zip" so "data.csv.zip" resolves as .csv.
func stripZip(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		return name[:len(name)-len(".zip")]
	}
	return name
}
