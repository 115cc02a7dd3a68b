package whitelist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendatar/catalog-indexer/internal/store"
)

const whitelistYAML = `
example-node:
  dataset:
    - ds-1
  distribution:
    - dist-1.1
other-node:
  dataset:
    - ds-9
`

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "whitelist.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func seedHierarchy(t *testing.T, s *store.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	c, err := s.UpsertCatalog(ctx, "example-node", "Example", "{}")
	require.NoError(t, err)
	ds, _, err := s.GetOrCreateDataset(ctx, c.ID, "ds-1", false)
	require.NoError(t, err)
	_, _, err = s.GetOrCreateDistribution(ctx, ds.ID, "dist-1.1")
	require.NoError(t, err)
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(whitelistYAML))
	require.NoError(t, err)
	require.Len(t, f, 2)
	assert.Equal(t, []string{"ds-1"}, f["example-node"].Dataset)
	assert.Equal(t, []string{"dist-1.1"}, f["example-node"].Distribution)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("example: [broken"))
	require.Error(t, err)
}

func TestProcess(t *testing.T) {
	s := newTestStore(t)
	seedHierarchy(t, s)
	ctx := context.Background()

	f, err := Parse([]byte(whitelistYAML))
	require.NoError(t, err)

	logs, err := NewToggler(s).Process(ctx, f)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	// Catalogs are processed in sorted order, datasets before distributions.
	assert.Equal(t, "dataset example-node/ds-1 marked indexable", logs[0])
	assert.Equal(t, "distribution example-node/dist-1.1 marked indexable", logs[1])
	assert.Equal(t, "dataset other-node/ds-9 not found", logs[2])

	ds, err := s.GetDataset(ctx, "example-node", "ds-1")
	require.NoError(t, err)
	assert.True(t, ds.Indexable)

	dist, err := s.GetDistribution(ctx, "example-node", "dist-1.1")
	require.NoError(t, err)
	assert.True(t, dist.Indexable)
}

func TestProcess_UnknownIdentifiersSkipped(t *testing.T) {
	s := newTestStore(t)
	seedHierarchy(t, s)

	logs, err := NewToggler(s).Process(context.Background(), File{
		"example-node": {Dataset: []string{"no-such-ds", "ds-1"}},
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0], "not found")
	assert.Contains(t, logs[1], "marked indexable")
}

func TestProcessFile(t *testing.T) {
	s := newTestStore(t)
	seedHierarchy(t, s)

	path := filepath.Join(t.TempDir(), "whitelist.yml")
	require.NoError(t, os.WriteFile(path, []byte(whitelistYAML), 0o644))

	logs, err := NewToggler(s).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestProcessFile_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := NewToggler(s).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
