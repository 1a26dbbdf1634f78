package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"tabsource/internal/datasource"
)

// Cache copies remote resources to a local directory. Concurrent requests for
// the same URL share one download; later requests reuse the file until it is
// removed.
type Cache struct {
	fetcher datasource.Fetcher
	dir     string

	group singleflight.Group

	mu    sync.Mutex
	paths map[string]string // url -> local path
}

// NewCache returns a Cache downloading through f into dir. An empty dir
// means os.TempDir().
func NewCache(f datasource.Fetcher, dir string) *Cache {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Cache{fetcher: f, dir: dir, paths: map[string]string{}}
}

// Cache implements datasource.Cacher.
func (c *Cache) Cache(ctx context.Context, rawURL string, header http.Header) (string, error) {
	c.mu.Lock()
	p, ok := c.paths[rawURL]
	c.mu.Unlock()
	if ok {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	v, err, _ := c.group.Do(rawURL, func() (any, error) {
		p, err := c.download(ctx, rawURL, header)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.paths[rawURL] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// download streams the body into a temporary file and renames it into place
// once complete, so a partially written file is never handed out.
func (c *Cache) download(ctx context.Context, rawURL string, header http.Header) (string, error) {
	_, body, err := c.fetcher.Fetch(ctx, rawURL, header)
	if err != nil {
		return "", err
	}
	defer body.Close()

	final := filepath.Join(c.dir, CacheFilename(rawURL))
	tmp, err := os.CreateTemp(c.dir, filepath.Base(final)+".part-*")
	if err != nil {
		return "", fmt.Errorf("httpds: cache %s: %w", rawURL, err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("httpds: cache %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("httpds: cache %s: %w", rawURL, err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("httpds: cache %s: %w", rawURL, err)
	}
	return final, nil
}

// Remove implements datasource.Cacher. Removing a path that is already gone
// is not an error.
func (c *Cache) Remove(path string) error {
	c.mu.Lock()
	for u, p := range c.paths {
		if p == path {
			delete(c.paths, u)
		}
	}
	c.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("httpds: remove cached %s: %w", path, err)
	}
	return nil
}

var _ datasource.Cacher = (*Cache)(nil)
var _ datasource.Fetcher = (*Client)(nil)
var _ datasource.Sniffer = (*Client)(nil)
