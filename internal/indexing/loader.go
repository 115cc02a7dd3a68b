package indexing

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opendatar/catalog-indexer/internal/catalog"
	"github.com/opendatar/catalog-indexer/internal/fetcher"
	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

// Blacklists holds the metadata keys stripped before persistence, one
// independent list per hierarchy level.
type Blacklists struct {
	Catalog      []string
	Dataset      []string
	Distribution []string
	Field        []string
}

// Loader walks one distribution of a parsed catalog document and upserts the
// catalog, dataset, distribution and field records it touches. It performs no
// schema validation.
type Loader struct {
	store      store.Store
	fetch      fetcher.Fetcher
	blacklists Blacklists
	// defaultIndexable seeds the indexable flag of datasets created during
	// this run (the whitelist run mode).
	defaultIndexable bool
	stats            *model.TaskStats
}

// NewLoader creates a Loader writing run counters into stats.
func NewLoader(st store.Store, f fetcher.Fetcher, bl Blacklists, defaultIndexable bool, stats *model.TaskStats) *Loader {
	if stats == nil {
		stats = &model.TaskStats{}
	}
	return &Loader{
		store:            st,
		fetch:            f,
		blacklists:       bl,
		defaultIndexable: defaultIndexable,
		stats:            stats,
	}
}

// Upsert persists one distribution of the catalog document together with the
// catalog and dataset metadata that own it. It returns the distribution when
// its content changed (indexable), nil otherwise.
//
// Fetch and conflict failures abort only this distribution: catalog and
// dataset rows saved before the failure stay committed. Every aborted
// distribution counts against the run's failure stat, whatever the cause.
func (l *Loader) Upsert(ctx context.Context, ref catalog.DistributionRef, doc catalog.Document, catalogID string) (*model.Distribution, error) {
	dist, err := l.load(ctx, ref, doc, catalogID)
	if err != nil {
		l.stats.DistributionsFailed++
		return nil, err
	}
	return dist, nil
}

func (l *Loader) load(ctx context.Context, ref catalog.DistributionRef, doc catalog.Document, catalogID string) (*model.Distribution, error) {
	cat, err := l.upsertCatalog(ctx, doc, catalogID)
	if err != nil {
		return nil, err
	}

	ds, err := l.upsertDataset(ctx, cat, doc, ref.DatasetIdentifier)
	if err != nil {
		return nil, err
	}

	fields := catalog.Fields(ref.Distribution)
	periodicity := catalog.Periodicity(fields)

	dist, err := l.upsertDistribution(ctx, ds, ref.Distribution, periodicity)
	if err != nil {
		return nil, err
	}

	if err := l.saveFields(ctx, dist, fields, catalogID); err != nil {
		return nil, err
	}

	if !dist.Indexable {
		return nil, nil
	}
	return dist, nil
}

func (l *Loader) upsertCatalog(ctx context.Context, doc catalog.Document, catalogID string) (*model.Catalog, error) {
	meta := catalog.Filter(doc.Metadata(), l.blacklists.Catalog)
	metaJSON, err := catalog.Serialize(meta)
	if err != nil {
		return nil, err
	}
	return l.store.UpsertCatalog(ctx, catalogID, doc.Title(), metaJSON)
}

func (l *Loader) upsertDataset(ctx context.Context, cat *model.Catalog, doc catalog.Document, identifier string) (*model.Dataset, error) {
	dsDoc := doc.Dataset(identifier)
	if dsDoc == nil {
		return nil, eris.Errorf("indexing: dataset %s not present in catalog %s", identifier, cat.Identifier)
	}

	meta := catalog.Filter(catalog.DatasetMetadata(dsDoc), l.blacklists.Dataset)
	metaJSON, err := catalog.Serialize(meta)
	if err != nil {
		return nil, err
	}

	ds, _, err := l.store.GetOrCreateDataset(ctx, cat.ID, identifier, l.defaultIndexable)
	if err != nil {
		return nil, err
	}
	if err := l.store.UpdateDataset(ctx, ds.ID, metaJSON, true, time.Now().UTC()); err != nil {
		return nil, err
	}
	ds.Metadata = metaJSON
	ds.Present = true
	return ds, nil
}

func (l *Loader) upsertDistribution(ctx context.Context, ds *model.Dataset, distDoc map[string]any, periodicity string) (*model.Distribution, error) {
	identifier, _ := distDoc[catalog.KeyIdentifier].(string)
	if identifier == "" {
		return nil, eris.New("indexing: distribution without identifier")
	}
	url, _ := distDoc[catalog.KeyDownloadURL].(string)

	dist, _, err := l.store.GetOrCreateDistribution(ctx, ds.ID, identifier)
	if err != nil {
		return nil, err
	}
	dist.DownloadURL = url
	dist.Periodicity = periodicity

	if ds.Indexable {
		// The digest is computed before the stored blob is replaced, so an
		// unchanged file never touches data_hash or last_updated.
		res, err := Refresh(ctx, l.fetch, url, dist.DataHash)
		if err != nil {
			return nil, err
		}
		switch res.Outcome {
		case OutcomeUpdated:
			now := time.Now().UTC()
			dist.DataHash = res.Hash
			dist.Data = res.Data
			dist.LastUpdated = &now
			dist.Indexable = true
			l.stats.DistributionsUpdated++
		case OutcomeUnchanged:
			dist.Indexable = false
			l.stats.DistributionsSame++
		}
	} else {
		// Non-indexable dataset: no download is attempted and the
		// distribution is suppressed regardless of remote content.
		dist.Indexable = false
	}

	meta := catalog.Filter(catalog.DistributionMetadata(distDoc), l.blacklists.Distribution)
	metaJSON, err := catalog.Serialize(meta)
	if err != nil {
		return nil, err
	}
	dist.Metadata = metaJSON

	if err := l.store.SaveDistribution(ctx, dist); err != nil {
		return nil, err
	}
	return dist, nil
}

// saveFields upserts every non-time-index field against the distribution.
// A cross-catalog fingerprint collision marks the stored field as errored and
// aborts the remaining fields of this distribution.
func (l *Loader) saveFields(ctx context.Context, dist *model.Distribution, fields []map[string]any, catalogID string) error {
	for _, fieldDoc := range fields {
		if special, _ := fieldDoc[catalog.KeySpecialType].(string); special == catalog.TimeIndex {
			continue
		}
		if err := l.upsertField(ctx, fieldDoc, dist, catalogID); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) upsertField(ctx context.Context, fieldDoc map[string]any, dist *model.Distribution, catalogID string) error {
	filtered := catalog.Filter(fieldDoc, l.blacklists.Field)
	fingerprint, err := catalog.Fingerprint(filtered)
	if err != nil {
		return err
	}

	existing, ownerCatalog, err := l.store.GetFieldByFingerprint(ctx, fingerprint)
	if err != nil {
		return err
	}

	if existing == nil {
		if _, err := l.store.CreateField(ctx, dist.ID, fingerprint, fingerprint); err != nil {
			return err
		}
		l.stats.FieldsCreated++
		return nil
	}

	if ownerCatalog != catalogID {
		if err := l.store.MarkFieldError(ctx, existing.ID); err != nil {
			return err
		}
		title, _ := fieldDoc[catalog.KeyTitle].(string)
		zap.L().Warn("field fingerprint collision",
			zap.String("field", title),
			zap.String("existing_catalog", ownerCatalog),
			zap.String("incoming_catalog", catalogID),
		)
		return &FieldConflictError{
			FieldTitle:      title,
			ExistingCatalog: ownerCatalog,
			IncomingCatalog: catalogID,
		}
	}

	// Same catalog: distributions may not persist field continuity across
	// runs, so the field reattaches to the current distribution.
	if err := l.store.ReattachField(ctx, existing.ID, dist.ID); err != nil {
		return err
	}
	l.stats.FieldsReattached++
	return nil
}
