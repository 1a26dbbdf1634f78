// Package datasource declares the byte-source capabilities a file table is
// built on. Concrete implementations live in subpackages: file (local disk),
// httpds (HTTP fetch and remote-to-local cache) and archive (zip members).
package datasource

import (
	"context"
	"io"
	"net/http"

	"tabsource/internal/config"
	"tabsource/internal/decompress"
)

// Source opens a fresh byte stream on every call.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }

// Fetcher retrieves a remote resource. The returned headers are the
// response headers; the body must be closed by the caller.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (http.Header, io.ReadCloser, error)
}

// Sniffer is an optional Fetcher capability: reading only the first n bytes
// of a resource, used to detect a compression signature.
type Sniffer interface {
	FetchFirstBytes(ctx context.Context, url string, n int, header http.Header) ([]byte, error)
}

// ArchiveOpener opens an archive on local disk and streams the contents of
// its members, in archive order, as one byte stream.
type ArchiveOpener interface {
	OpenArchive(path string) (io.ReadCloser, error)
}

// Cacher copies a remote resource to local disk and returns the local path.
// Remove deletes a path previously returned by Cache.
type Cacher interface {
	Cache(ctx context.Context, url string, header http.Header) (string, error)
	Remove(path string) error
}

// Descriptor identifies what a table reads. It is fixed when the table is
// built.
type Descriptor struct {
	Location    string
	Remote      bool
	Compression decompress.Kind
	Dialect     config.DialectName
}
