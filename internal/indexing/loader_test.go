package indexing

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendatar/catalog-indexer/internal/catalog"
	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

const loaderCatalog = `{
	"identifier": "example",
	"title": "Example Node",
	"themeTaxonomy": [{"id": "ECON"}],
	"dataset": [
		{
			"identifier": "ds-1",
			"title": "Series",
			"accrualPeriodicity": "R/P1Y",
			"distribution": [
				{
					"identifier": "dist-1.1",
					"downloadURL": "series.csv",
					"field": [
						{"title": "indice_tiempo", "specialType": "time_index", "specialTypeDetail": "R/P1Y"},
						{"title": "valor", "type": "number"}
					]
				},
				{
					"identifier": "dist-1.2",
					"downloadURL": "plain.csv",
					"field": [
						{"title": "otro_valor", "type": "string"}
					]
				}
			]
		}
	]
}`

type loaderEnv struct {
	store   *store.SQLiteStore
	fetcher *stubFetcher
	stats   *model.TaskStats
	doc     catalog.Document
	ref     catalog.DistributionRef
}

func newLoaderEnv(t *testing.T, doc string) *loaderEnv {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	parsed, err := catalog.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	refs := parsed.Distributions()
	require.NotEmpty(t, refs)

	return &loaderEnv{
		store:   s,
		fetcher: &stubFetcher{content: map[string][]byte{"series.csv": []byte("2023,100\n2024,110\n")}},
		stats:   &model.TaskStats{},
		doc:     parsed,
		ref:     refs[0],
	}
}

func (e *loaderEnv) loader(bl Blacklists, defaultIndexable bool) *Loader {
	return NewLoader(e.store, e.fetcher, bl, defaultIndexable, e.stats)
}

func TestUpsert_CreatesHierarchy(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	dist, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	require.NotNil(t, dist)

	c, err := env.store.GetCatalog(ctx, "example")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Example Node", c.Title)

	ds, err := env.store.GetDataset(ctx, "example", "ds-1")
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.True(t, ds.Present)
	assert.True(t, ds.Indexable)
	require.NotNil(t, ds.LastReviewed)

	got, err := env.store.GetDistribution(ctx, "example", "dist-1.1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, DigestBytes([]byte("2023,100\n2024,110\n")), got.DataHash)
	assert.Equal(t, "R/P1Y", got.Periodicity)
	assert.True(t, got.Indexable)
	require.NotNil(t, got.LastUpdated)

	// One content field; the time index is never stored as a field row.
	assert.Equal(t, 1, env.stats.FieldsCreated)
	assert.Equal(t, 1, env.stats.DistributionsUpdated)
}

func TestUpsert_PeriodicityOnlyFromTimeIndex(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	env.fetcher.content["plain.csv"] = []byte("x,y\n")
	ctx := context.Background()

	refs := env.doc.Distributions()
	require.Len(t, refs, 2)

	loader := env.loader(Blacklists{}, true)
	_, err := loader.Upsert(ctx, refs[0], env.doc, "example")
	require.NoError(t, err)
	_, err = loader.Upsert(ctx, refs[1], env.doc, "example")
	require.NoError(t, err)

	timed, err := env.store.GetDistribution(ctx, "example", "dist-1.1")
	require.NoError(t, err)
	assert.Equal(t, "R/P1Y", timed.Periodicity)

	// No time-index field means no periodicity.
	plain, err := env.store.GetDistribution(ctx, "example", "dist-1.2")
	require.NoError(t, err)
	assert.Empty(t, plain.Periodicity)
}

func TestUpsert_UnchangedContentSuppressed(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	dist, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	require.NotNil(t, dist)
	firstUpdated := dist.LastUpdated

	// Same bytes on the second run: the distribution is not republished.
	dist, err = env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	assert.Nil(t, dist)
	assert.Equal(t, 1, env.stats.DistributionsSame)

	got, err := env.store.GetDistribution(ctx, "example", "dist-1.1")
	require.NoError(t, err)
	assert.False(t, got.Indexable)
	// The stored hash and timestamp survive unchanged.
	assert.Equal(t, DigestBytes([]byte("2023,100\n2024,110\n")), got.DataHash)
	require.NotNil(t, got.LastUpdated)
	assert.Equal(t, firstUpdated.Unix(), got.LastUpdated.Unix())
}

func TestUpsert_SingleByteChangeDetected(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	_, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)

	env.fetcher.content["series.csv"] = []byte("2023,100\n2024,111\n")

	dist, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	require.NotNil(t, dist)
	assert.Equal(t, DigestBytes([]byte("2023,100\n2024,111\n")), dist.DataHash)
	assert.Equal(t, 2, env.stats.DistributionsUpdated)
}

func TestUpsert_NonIndexableDatasetNeverFetched(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	dist, err := env.loader(Blacklists{}, false).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	assert.Nil(t, dist)
	// No download is attempted for a non-indexable dataset's distributions.
	assert.Zero(t, env.fetcher.calls)

	got, err := env.store.GetDistribution(ctx, "example", "dist-1.1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Indexable)
	assert.Empty(t, got.DataHash)

	// Metadata is still refreshed.
	assert.Contains(t, got.Metadata, "series.csv")
}

func TestUpsert_BlacklistStripsMetadata(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	bl := Blacklists{
		Catalog: []string{"themeTaxonomy"},
		Dataset: []string{"accrualPeriodicity"},
	}
	_, err := env.loader(bl, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)

	c, err := env.store.GetCatalog(ctx, "example")
	require.NoError(t, err)
	assert.NotContains(t, c.Metadata, "themeTaxonomy")
	assert.Contains(t, c.Metadata, "Example Node")

	ds, err := env.store.GetDataset(ctx, "example", "ds-1")
	require.NoError(t, err)
	assert.NotContains(t, ds.Metadata, "accrualPeriodicity")
}

func TestUpsert_FetchFailureAbortsDistributionOnly(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	delete(env.fetcher.content, "series.csv")

	dist, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.Error(t, err)
	assert.Nil(t, dist)
	assert.Equal(t, 1, env.stats.DistributionsFailed)

	// Catalog and dataset rows written before the failure stay committed.
	c, err := env.store.GetCatalog(ctx, "example")
	require.NoError(t, err)
	assert.NotNil(t, c)
	ds, err := env.store.GetDataset(ctx, "example", "ds-1")
	require.NoError(t, err)
	assert.NotNil(t, ds)
}

func TestUpsert_FieldReattachedWithinCatalog(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	_, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	assert.Equal(t, 1, env.stats.FieldsCreated)

	env.fetcher.content["series.csv"] = []byte("new content\n")
	_, err = env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)
	assert.Equal(t, 1, env.stats.FieldsCreated)
	assert.Equal(t, 1, env.stats.FieldsReattached)
}

func TestUpsert_CrossCatalogFieldConflict(t *testing.T) {
	env := newLoaderEnv(t, loaderCatalog)
	ctx := context.Background()

	_, err := env.loader(Blacklists{}, true).Upsert(ctx, env.ref, env.doc, "example")
	require.NoError(t, err)

	// The same field metadata arriving from a different catalog is a
	// repetition: the stored field is flagged and the distribution aborted.
	otherDoc := strings.ReplaceAll(loaderCatalog, `"identifier": "example"`, `"identifier": "other"`)
	otherEnv := newLoaderEnv(t, otherDoc)
	loader := NewLoader(env.store, env.fetcher, Blacklists{}, true, env.stats)

	_, err = loader.Upsert(ctx, otherEnv.ref, otherEnv.doc, "other")
	require.Error(t, err)

	var conflict *FieldConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "valor", conflict.FieldTitle)
	assert.Equal(t, "example", conflict.ExistingCatalog)
	assert.Equal(t, "other", conflict.IncomingCatalog)

	// A conflict-aborted distribution counts as failed like any other abort.
	assert.Equal(t, 1, env.stats.DistributionsFailed)

	fp, ferr := catalog.Fingerprint(map[string]any{"title": "valor", "type": "number"})
	require.NoError(t, ferr)
	f, _, ferr := env.store.GetFieldByFingerprint(ctx, fp)
	require.NoError(t, ferr)
	require.NotNil(t, f)
	assert.True(t, f.Error)
}

func TestUpsert_MissingDistributionIdentifier(t *testing.T) {
	doc := strings.ReplaceAll(loaderCatalog, `"identifier": "dist-1.1",`, "")
	env := newLoaderEnv(t, doc)

	_, err := env.loader(Blacklists{}, true).Upsert(context.Background(), env.ref, env.doc, "example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without identifier")
}
