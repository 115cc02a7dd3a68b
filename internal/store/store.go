// Package store persists the catalog hierarchy, federation nodes and run
// records behind a single interface with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/opendatar/catalog-indexer/internal/model"
)

// TaskFilter specifies criteria for listing ingestion tasks.
type TaskFilter struct {
	Status model.TaskStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
//
// Getters return (nil, nil) for rows that do not exist. The store performs
// no locking beyond StartTask: callers are expected to run at most one
// ingestion at a time.
type Store interface {
	// Catalogs. ClearNewFlags drops the new flag on the catalog and its
	// datasets and distributions once a load has completed.
	UpsertCatalog(ctx context.Context, identifier, title, metadata string) (*model.Catalog, error)
	GetCatalog(ctx context.Context, identifier string) (*model.Catalog, error)
	ClearNewFlags(ctx context.Context, catalogIdentifier string) error

	// Datasets. GetOrCreateDataset reports whether the row was created;
	// defaultIndexable seeds the indexable flag of newly created rows only.
	// MarkDatasetsAbsent resets the present flag on every dataset of the
	// catalog, ahead of re-marking the ones seen in the latest document.
	GetOrCreateDataset(ctx context.Context, catalogID int64, identifier string, defaultIndexable bool) (*model.Dataset, bool, error)
	UpdateDataset(ctx context.Context, id int64, metadata string, present bool, reviewed time.Time) error
	MarkDatasetsAbsent(ctx context.Context, catalogIdentifier string) error
	GetDataset(ctx context.Context, catalogIdentifier, identifier string) (*model.Dataset, error)
	SetDatasetIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error)

	// Distributions
	GetOrCreateDistribution(ctx context.Context, datasetID int64, identifier string) (*model.Distribution, bool, error)
	SaveDistribution(ctx context.Context, d *model.Distribution) error
	GetDistribution(ctx context.Context, catalogIdentifier, identifier string) (*model.Distribution, error)
	SetDistributionIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error)

	// Fields. GetFieldByFingerprint also reports the identifier of the
	// catalog currently owning the field, via its attached distribution.
	GetFieldByFingerprint(ctx context.Context, fingerprint string) (*model.Field, string, error)
	CreateField(ctx context.Context, distributionID int64, fingerprint, metadata string) (*model.Field, error)
	ReattachField(ctx context.Context, fieldID, distributionID int64) error
	MarkFieldError(ctx context.Context, fieldID int64) error

	// Nodes
	SaveNode(ctx context.Context, n *model.Node) error
	GetNode(ctx context.Context, catalogID string) (*model.Node, error)
	ListNodes(ctx context.Context, indexableOnly bool) ([]model.Node, error)
	DeleteNode(ctx context.Context, catalogID string) error

	// Tasks. StartTask is a compare-and-swap: it moves a pending task to
	// running only while no other task is running, and reports whether the
	// transition happened.
	CreateTask(ctx context.Context) (*model.Task, error)
	StartTask(ctx context.Context, taskID string) (bool, error)
	FinishTask(ctx context.Context, taskID string, status model.TaskStatus, stats model.TaskStats, logs string) error
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// Registry file records
	CreateIngestFile(ctx context.Context, kind model.IngestFileKind, path string) (*model.IngestFile, error)
	FinishIngestFile(ctx context.Context, id string, state model.IngestFileState, logs string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
