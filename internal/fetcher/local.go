package fetcher

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// LocalFetcher reads distribution files from the local filesystem. Used when
// a node's catalog references local paths (debug and testing).
type LocalFetcher struct{}

// Fetch opens the file at path. A missing file is a fatal I/O error.
func (LocalFetcher) Fetch(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}
