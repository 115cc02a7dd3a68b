package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	body, err := LocalFetcher{}.Fetch(context.Background(), path)
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestLocalFetcher_Missing(t *testing.T) {
	_, err := LocalFetcher{}.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestResolver_DispatchesByScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("from http")) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewResolver(HTTPOptions{}, false)

	body, err := r.Fetch(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	body.Close() //nolint:errcheck
	assert.Equal(t, "from http", string(data))

	// Bare paths fall through to the filesystem.
	path := filepath.Join(t.TempDir(), "local.csv")
	require.NoError(t, os.WriteFile(path, []byte("from disk"), 0o644))
	body, err = r.Fetch(context.Background(), path)
	require.NoError(t, err)
	data, err = io.ReadAll(body)
	require.NoError(t, err)
	body.Close() //nolint:errcheck
	assert.Equal(t, "from disk", string(data))
}

func TestResolver_UnsupportedScheme(t *testing.T) {
	r := NewResolver(HTTPOptions{}, false)
	_, err := r.Fetch(context.Background(), "gopher://example.org/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestResolver_ReadLocalOverridesScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("local wins"), 0o644))

	r := NewResolver(HTTPOptions{}, true)
	body, err := r.Fetch(context.Background(), path)
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "local wins", string(data))
}
