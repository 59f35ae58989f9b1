// Package fetcher retrieves annotation drops from local disk, HTTP, or FTP
// and loads them into the store.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a resource identified by a URL or local path.
type Fetcher interface {
	Download(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Options configures the fetchers behind ForRef.
type Options struct {
	Timeout time.Duration
}

// ForRef picks a fetcher by scheme: ftp:// and http(s):// go to the
// network fetchers, everything else is treated as a local path.
func ForRef(ref string, opts Options) (Fetcher, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return NewFileFetcher(), nil
	}
	switch u.Scheme {
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}), nil
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{Timeout: opts.Timeout}), nil
	case "", "file":
		return NewFileFetcher(), nil
	}
	return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
}

// FileFetcher reads local files.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

func (f *FileFetcher) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(ref, "file://")
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return file, nil
}
