// Package fetcher retrieves distribution and catalog files over HTTP, FTP
// or from the local filesystem.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for retrieving a file's content.
type Fetcher interface {
	// Fetch retrieves the resource and returns its body. A transport error
	// or non-success status is terminal: there are no retries, the next
	// scheduled run is the retry mechanism.
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// Resolver dispatches fetches by URL scheme. Paths with no scheme (or when
// readLocal is set) are read from the local filesystem.
type Resolver struct {
	HTTP      Fetcher
	FTP       Fetcher
	Local     Fetcher
	ReadLocal bool
}

// NewResolver builds a Resolver with the given HTTP options. readLocal
// forces filesystem reads regardless of scheme (debug and testing path).
func NewResolver(httpOpts HTTPOptions, readLocal bool) *Resolver {
	return &Resolver{
		HTTP:      NewHTTPFetcher(httpOpts),
		FTP:       NewFTPFetcher(FTPOptions{}),
		Local:     LocalFetcher{},
		ReadLocal: readLocal,
	}
}

// Fetch retrieves rawURL with the fetcher matching its scheme.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if r.ReadLocal {
		return r.Local.Fetch(ctx, rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %s", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		return r.HTTP.Fetch(ctx, rawURL)
	case "ftp":
		return r.FTP.Fetch(ctx, rawURL)
	case "", "file":
		return r.Local.Fetch(ctx, u.Path)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", u.Scheme, rawURL)
	}
}
