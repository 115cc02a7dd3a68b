package nodes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

const registerYAML = `
example-node:
  url: https://example.org/data.json
  federated: true
other-node:
  url: https://other.org/data.json
  federated: false
ssl-node:
  url: https://secure.org/data.json
  federated: true
  verify_ssl: true
`

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "nodes.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func TestParseRegisterFile(t *testing.T) {
	rf, err := ParseRegisterFile([]byte(registerYAML))
	require.NoError(t, err)
	require.Len(t, rf, 3)

	assert.Equal(t, "https://example.org/data.json", rf["example-node"].URL)
	assert.True(t, rf["example-node"].Federated)
	assert.False(t, rf["example-node"].VerifySSL)
	assert.True(t, rf["ssl-node"].VerifySSL)
}

func TestParseRegisterFile_Malformed(t *testing.T) {
	_, err := ParseRegisterFile([]byte("not: [valid: yaml"))
	require.Error(t, err)
}

func TestProcess_RegistersFederatedNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rf, err := ParseRegisterFile([]byte(registerYAML))
	require.NoError(t, err)

	logs, err := NewProcessor(s).Process(ctx, rf)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	n, err := s.GetNode(ctx, "example-node")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.True(t, n.Indexable)
	assert.False(t, n.VerifySSL)
	require.NotNil(t, n.RegisterDate)
	require.NotNil(t, n.ReleaseDate)

	ssl, err := s.GetNode(ctx, "ssl-node")
	require.NoError(t, err)
	require.NotNil(t, ssl)
	assert.True(t, ssl.VerifySSL)

	// Non-federated entries are never created.
	other, err := s.GetNode(ctx, "other-node")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestProcess_ReprocessKeepsRegisterAndReleaseDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rf, err := ParseRegisterFile([]byte(registerYAML))
	require.NoError(t, err)

	p := NewProcessor(s)
	_, err = p.Process(ctx, rf)
	require.NoError(t, err)

	first, err := s.GetNode(ctx, "example-node")
	require.NoError(t, err)

	_, err = p.Process(ctx, rf)
	require.NoError(t, err)

	second, err := s.GetNode(ctx, "example-node")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RegisterDate.Unix(), second.RegisterDate.Unix())
	assert.Equal(t, first.ReleaseDate.Unix(), second.ReleaseDate.Unix())
}

func TestProcess_DefederatedIndexableNodeSurvives(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := NewProcessor(s)
	_, err := p.Process(ctx, RegisterFile{
		"example-node": {URL: "https://example.org/data.json", Federated: true},
	})
	require.NoError(t, err)

	// The node is still indexable: losing federation must not delete it.
	logs, err := p.Process(ctx, RegisterFile{
		"example-node": {URL: "https://example.org/data.json", Federated: false},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "not removed")

	n, err := s.GetNode(ctx, "example-node")
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestProcess_DefederatedDisabledNodeRemoved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &model.Node{CatalogID: "example-node", CatalogURL: "https://example.org/data.json", Indexable: false}
	require.NoError(t, s.SaveNode(ctx, n))

	logs, err := NewProcessor(s).Process(ctx, RegisterFile{
		"example-node": {URL: "https://example.org/data.json", Federated: false},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "removed")

	got, err := s.GetNode(ctx, "example-node")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConfirmDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := NewProcessor(s)

	indexable := &model.Node{CatalogID: "on", Indexable: true}
	require.NoError(t, s.SaveNode(ctx, indexable))
	deleted, err := p.ConfirmDelete(ctx, indexable)
	require.NoError(t, err)
	assert.False(t, deleted)

	disabled := &model.Node{CatalogID: "off", Indexable: false}
	require.NoError(t, s.SaveNode(ctx, disabled))
	deleted, err = p.ConfirmDelete(ctx, disabled)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestProcessFile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "indice.yml")
	require.NoError(t, os.WriteFile(path, []byte(registerYAML), 0o644))

	logs, err := NewProcessor(s).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestProcessFile_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := NewProcessor(s).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
