// Package archive reads zip archives on local disk as a single byte stream.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"tabsource/internal/datasource"
)

// Zip implements datasource.ArchiveOpener. Regular file members are streamed
// one after another in archive order; directories are skipped. A member
// whose content does not end with a newline is followed by one, so rows
// never run across member boundaries.
type Zip struct{}

// OpenArchive implements datasource.ArchiveOpener.
func (Zip) OpenArchive(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	var members []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		members = append(members, f)
	}
	if len(members) == 0 {
		zr.Close()
		return nil, fmt.Errorf("zip %s has no file members", path)
	}
	return &memberReader{zr: zr, members: members}, nil
}

type memberReader struct {
	zr      *zip.ReadCloser
	members []*zip.File
	cur     io.ReadCloser
	last    byte // last byte delivered from the current member
	pending bool // a separating newline is owed before the next member
}

func (m *memberReader) Read(p []byte) (int, error) {
	for {
		if m.pending {
			if len(p) == 0 {
				return 0, nil
			}
			m.pending = false
			p[0] = '\n'
			return 1, nil
		}
		if m.cur == nil {
			if len(m.members) == 0 {
				return 0, io.EOF
			}
			f := m.members[0]
			m.members = m.members[1:]
			rc, err := f.Open()
			if err != nil {
				return 0, fmt.Errorf("open zip member %s: %w", f.Name, err)
			}
			m.cur, m.last = rc, '\n'
		}

		n, err := m.cur.Read(p)
		if n > 0 {
			m.last = p[n-1]
		}
		if err == io.EOF {
			cerr := m.cur.Close()
			m.cur = nil
			if cerr != nil {
				return n, cerr
			}
			m.pending = m.last != '\n' && len(m.members) > 0
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (m *memberReader) Close() error {
	var err error
	if m.cur != nil {
		err = m.cur.Close()
		m.cur = nil
	}
	if cerr := m.zr.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ datasource.ArchiveOpener = Zip{}
