package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/opendatar/catalog-indexer/internal/model"
)

// Pool is the subset of pgxpool.Pool the Postgres store needs. pgxmock
// satisfies it, which keeps the store testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS catalogs (
	id         BIGSERIAL PRIMARY KEY,
	identifier TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	is_new     BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS datasets (
	id            BIGSERIAL PRIMARY KEY,
	catalog_id    BIGINT NOT NULL REFERENCES catalogs(id),
	identifier    TEXT NOT NULL,
	metadata      TEXT NOT NULL DEFAULT '{}',
	indexable     BOOLEAN NOT NULL DEFAULT FALSE,
	present       BOOLEAN NOT NULL DEFAULT FALSE,
	last_reviewed TIMESTAMPTZ,
	is_new        BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE(catalog_id, identifier)
);

CREATE TABLE IF NOT EXISTS distributions (
	id           BIGSERIAL PRIMARY KEY,
	dataset_id   BIGINT NOT NULL REFERENCES datasets(id),
	identifier   TEXT NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	download_url TEXT NOT NULL DEFAULT '',
	periodicity  TEXT NOT NULL DEFAULT '',
	data_hash    TEXT NOT NULL DEFAULT '',
	data         BYTEA,
	indexable    BOOLEAN NOT NULL DEFAULT FALSE,
	last_updated TIMESTAMPTZ,
	is_new       BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE(dataset_id, identifier)
);

CREATE TABLE IF NOT EXISTS fields (
	id              BIGSERIAL PRIMARY KEY,
	distribution_id BIGINT NOT NULL REFERENCES distributions(id),
	fingerprint     TEXT NOT NULL UNIQUE,
	metadata        TEXT NOT NULL DEFAULT '{}',
	error           BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS nodes (
	id            BIGSERIAL PRIMARY KEY,
	catalog_id    TEXT NOT NULL UNIQUE,
	catalog_url   TEXT NOT NULL DEFAULT '',
	indexable     BOOLEAN NOT NULL DEFAULT FALSE,
	register_date TIMESTAMPTZ,
	release_date  TIMESTAMPTZ,
	verify_ssl    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	stats       TEXT NOT NULL DEFAULT '{}',
	logs        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ingest_files (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	path       TEXT NOT NULL,
	state      TEXT NOT NULL DEFAULT 'pending',
	logs       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_datasets_catalog_id ON datasets(catalog_id);
CREATE INDEX IF NOT EXISTS idx_distributions_dataset_id ON distributions(dataset_id);
CREATE INDEX IF NOT EXISTS idx_fields_distribution_id ON fields(distribution_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Catalogs ---

func (s *PostgresStore) UpsertCatalog(ctx context.Context, identifier, title, metadata string) (*model.Catalog, error) {
	var c model.Catalog
	err := s.pool.QueryRow(ctx,
		`INSERT INTO catalogs (identifier, title, metadata, is_new, updated_at) VALUES ($1, $2, $3, TRUE, now())
		 ON CONFLICT (identifier) DO UPDATE SET title = excluded.title, metadata = excluded.metadata, updated_at = now()
		 RETURNING id, identifier, title, metadata, is_new, updated_at`,
		identifier, title, metadata,
	).Scan(&c.ID, &c.Identifier, &c.Title, &c.Metadata, &c.New, &c.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert catalog %s", identifier)
	}
	return &c, nil
}

func (s *PostgresStore) GetCatalog(ctx context.Context, identifier string) (*model.Catalog, error) {
	var c model.Catalog
	err := s.pool.QueryRow(ctx,
		`SELECT id, identifier, title, metadata, is_new, updated_at FROM catalogs WHERE identifier = $1`,
		identifier,
	).Scan(&c.ID, &c.Identifier, &c.Title, &c.Metadata, &c.New, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get catalog %s", identifier)
	}
	return &c, nil
}

func (s *PostgresStore) ClearNewFlags(ctx context.Context, catalogIdentifier string) error {
	stmts := []string{
		`UPDATE catalogs SET is_new = FALSE WHERE identifier = $1`,
		`UPDATE datasets SET is_new = FALSE WHERE catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = $1)`,
		`UPDATE distributions SET is_new = FALSE WHERE dataset_id IN
		 (SELECT d.id FROM datasets d JOIN catalogs c ON c.id = d.catalog_id WHERE c.identifier = $1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt, catalogIdentifier); err != nil {
			return eris.Wrapf(err, "postgres: clear new flags %s", catalogIdentifier)
		}
	}
	return nil
}

// --- Datasets ---

func (s *PostgresStore) GetOrCreateDataset(ctx context.Context, catalogID int64, identifier string, defaultIndexable bool) (*model.Dataset, bool, error) {
	ds, err := s.getDatasetByKey(ctx, catalogID, identifier)
	if err != nil {
		return nil, false, err
	}
	if ds != nil {
		return ds, false, nil
	}

	var created model.Dataset
	err = s.pool.QueryRow(ctx,
		`INSERT INTO datasets (catalog_id, identifier, indexable, is_new) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, catalog_id, identifier, metadata, indexable, present, last_reviewed, is_new`,
		catalogID, identifier, defaultIndexable,
	).Scan(&created.ID, &created.CatalogID, &created.Identifier, &created.Metadata,
		&created.Indexable, &created.Present, &created.LastReviewed, &created.New)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: insert dataset %s", identifier)
	}
	return &created, true, nil
}

func (s *PostgresStore) getDatasetByKey(ctx context.Context, catalogID int64, identifier string) (*model.Dataset, error) {
	var ds model.Dataset
	err := s.pool.QueryRow(ctx,
		`SELECT id, catalog_id, identifier, metadata, indexable, present, last_reviewed, is_new
		 FROM datasets WHERE catalog_id = $1 AND identifier = $2`,
		catalogID, identifier,
	).Scan(&ds.ID, &ds.CatalogID, &ds.Identifier, &ds.Metadata, &ds.Indexable, &ds.Present, &ds.LastReviewed, &ds.New)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get dataset")
	}
	return &ds, nil
}

func (s *PostgresStore) UpdateDataset(ctx context.Context, id int64, metadata string, present bool, reviewed time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE datasets SET metadata = $1, present = $2, last_reviewed = $3 WHERE id = $4`,
		metadata, present, reviewed.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update dataset %d", id)
	}
	return checkTag(tag, "dataset")
}

func (s *PostgresStore) MarkDatasetsAbsent(ctx context.Context, catalogIdentifier string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE datasets SET present = FALSE WHERE catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = $1)`,
		catalogIdentifier,
	)
	return eris.Wrapf(err, "postgres: mark datasets absent %s", catalogIdentifier)
}

func (s *PostgresStore) GetDataset(ctx context.Context, catalogIdentifier, identifier string) (*model.Dataset, error) {
	var ds model.Dataset
	err := s.pool.QueryRow(ctx,
		`SELECT d.id, d.catalog_id, d.identifier, d.metadata, d.indexable, d.present, d.last_reviewed, d.is_new
		 FROM datasets d JOIN catalogs c ON c.id = d.catalog_id
		 WHERE c.identifier = $1 AND d.identifier = $2`,
		catalogIdentifier, identifier,
	).Scan(&ds.ID, &ds.CatalogID, &ds.Identifier, &ds.Metadata, &ds.Indexable, &ds.Present, &ds.LastReviewed, &ds.New)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get dataset")
	}
	return &ds, nil
}

func (s *PostgresStore) SetDatasetIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE datasets SET indexable = $1 WHERE identifier = $2 AND catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = $3)`,
		indexable, identifier, catalogIdentifier,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: set dataset indexable %s/%s", catalogIdentifier, identifier)
	}
	return tag.RowsAffected() > 0, nil
}

// --- Distributions ---

func (s *PostgresStore) GetOrCreateDistribution(ctx context.Context, datasetID int64, identifier string) (*model.Distribution, bool, error) {
	d, err := s.getDistributionByKey(ctx, datasetID, identifier)
	if err != nil {
		return nil, false, err
	}
	if d != nil {
		return d, false, nil
	}

	var created model.Distribution
	err = s.pool.QueryRow(ctx,
		`INSERT INTO distributions (dataset_id, identifier, is_new) VALUES ($1, $2, TRUE)
		 RETURNING id, dataset_id, identifier, metadata, download_url, periodicity, data_hash, data, indexable, last_updated, is_new`,
		datasetID, identifier,
	).Scan(&created.ID, &created.DatasetID, &created.Identifier, &created.Metadata, &created.DownloadURL,
		&created.Periodicity, &created.DataHash, &created.Data, &created.Indexable, &created.LastUpdated, &created.New)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: insert distribution %s", identifier)
	}
	return &created, true, nil
}

func (s *PostgresStore) getDistributionByKey(ctx context.Context, datasetID int64, identifier string) (*model.Distribution, error) {
	var d model.Distribution
	err := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, identifier, metadata, download_url, periodicity, data_hash, data, indexable, last_updated, is_new
		 FROM distributions WHERE dataset_id = $1 AND identifier = $2`,
		datasetID, identifier,
	).Scan(&d.ID, &d.DatasetID, &d.Identifier, &d.Metadata, &d.DownloadURL, &d.Periodicity,
		&d.DataHash, &d.Data, &d.Indexable, &d.LastUpdated, &d.New)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get distribution")
	}
	return &d, nil
}

func (s *PostgresStore) SaveDistribution(ctx context.Context, d *model.Distribution) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE distributions SET metadata = $1, download_url = $2, periodicity = $3, data_hash = $4, data = $5,
		 indexable = $6, last_updated = $7 WHERE id = $8`,
		d.Metadata, d.DownloadURL, d.Periodicity, d.DataHash, d.Data, d.Indexable, d.LastUpdated, d.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save distribution %d", d.ID)
	}
	return checkTag(tag, "distribution")
}

func (s *PostgresStore) GetDistribution(ctx context.Context, catalogIdentifier, identifier string) (*model.Distribution, error) {
	var d model.Distribution
	err := s.pool.QueryRow(ctx,
		`SELECT di.id, di.dataset_id, di.identifier, di.metadata, di.download_url, di.periodicity, di.data_hash, di.data,
		 di.indexable, di.last_updated, di.is_new
		 FROM distributions di
		 JOIN datasets ds ON ds.id = di.dataset_id
		 JOIN catalogs c ON c.id = ds.catalog_id
		 WHERE c.identifier = $1 AND di.identifier = $2`,
		catalogIdentifier, identifier,
	).Scan(&d.ID, &d.DatasetID, &d.Identifier, &d.Metadata, &d.DownloadURL, &d.Periodicity,
		&d.DataHash, &d.Data, &d.Indexable, &d.LastUpdated, &d.New)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get distribution")
	}
	return &d, nil
}

func (s *PostgresStore) SetDistributionIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE distributions SET indexable = $1 WHERE identifier = $2 AND dataset_id IN
		 (SELECT ds.id FROM datasets ds JOIN catalogs c ON c.id = ds.catalog_id WHERE c.identifier = $3)`,
		indexable, identifier, catalogIdentifier,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: set distribution indexable %s/%s", catalogIdentifier, identifier)
	}
	return tag.RowsAffected() > 0, nil
}

// --- Fields ---

func (s *PostgresStore) GetFieldByFingerprint(ctx context.Context, fingerprint string) (*model.Field, string, error) {
	var f model.Field
	var catalogIdentifier string
	err := s.pool.QueryRow(ctx,
		`SELECT f.id, f.distribution_id, f.fingerprint, f.metadata, f.error, c.identifier
		 FROM fields f
		 JOIN distributions di ON di.id = f.distribution_id
		 JOIN datasets ds ON ds.id = di.dataset_id
		 JOIN catalogs c ON c.id = ds.catalog_id
		 WHERE f.fingerprint = $1`,
		fingerprint,
	).Scan(&f.ID, &f.DistributionID, &f.Fingerprint, &f.Metadata, &f.Error, &catalogIdentifier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: get field by fingerprint")
	}
	return &f, catalogIdentifier, nil
}

func (s *PostgresStore) CreateField(ctx context.Context, distributionID int64, fingerprint, metadata string) (*model.Field, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO fields (distribution_id, fingerprint, metadata) VALUES ($1, $2, $3) RETURNING id`,
		distributionID, fingerprint, metadata,
	).Scan(&id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert field")
	}
	return &model.Field{ID: id, DistributionID: distributionID, Fingerprint: fingerprint, Metadata: metadata}, nil
}

func (s *PostgresStore) ReattachField(ctx context.Context, fieldID, distributionID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fields SET distribution_id = $1 WHERE id = $2`,
		distributionID, fieldID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reattach field %d", fieldID)
	}
	return checkTag(tag, "field")
}

func (s *PostgresStore) MarkFieldError(ctx context.Context, fieldID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fields SET error = TRUE WHERE id = $1`,
		fieldID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark field error %d", fieldID)
	}
	return checkTag(tag, "field")
}

// --- Nodes ---

func (s *PostgresStore) SaveNode(ctx context.Context, n *model.Node) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO nodes (catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (catalog_id) DO UPDATE SET catalog_url = excluded.catalog_url, indexable = excluded.indexable,
		 register_date = excluded.register_date, release_date = excluded.release_date, verify_ssl = excluded.verify_ssl
		 RETURNING id`,
		n.CatalogID, n.CatalogURL, n.Indexable, n.RegisterDate, n.ReleaseDate, n.VerifySSL,
	).Scan(&n.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: save node %s", n.CatalogID)
	}
	return nil
}

func (s *PostgresStore) GetNode(ctx context.Context, catalogID string) (*model.Node, error) {
	var n model.Node
	err := s.pool.QueryRow(ctx,
		`SELECT id, catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl
		 FROM nodes WHERE catalog_id = $1`,
		catalogID,
	).Scan(&n.ID, &n.CatalogID, &n.CatalogURL, &n.Indexable, &n.RegisterDate, &n.ReleaseDate, &n.VerifySSL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get node %s", catalogID)
	}
	return &n, nil
}

func (s *PostgresStore) ListNodes(ctx context.Context, indexableOnly bool) ([]model.Node, error) {
	query := `SELECT id, catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl FROM nodes`
	if indexableOnly {
		query += ` WHERE indexable`
	}
	query += ` ORDER BY catalog_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list nodes")
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID, &n.CatalogID, &n.CatalogURL, &n.Indexable, &n.RegisterDate, &n.ReleaseDate, &n.VerifySSL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "postgres: list nodes iterate")
}

func (s *PostgresStore) DeleteNode(ctx context.Context, catalogID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE catalog_id = $1`, catalogID)
	return eris.Wrapf(err, "postgres: delete node %s", catalogID)
}

// --- Tasks ---

func (s *PostgresStore) CreateTask(ctx context.Context) (*model.Task, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, status, created_at) VALUES ($1, $2, $3)`,
		id, string(model.TaskStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert task")
	}
	return &model.Task{ID: id, Status: model.TaskStatusPending, CreatedAt: now}, nil
}

func (s *PostgresStore) StartTask(ctx context.Context, taskID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1 WHERE id = $2 AND status = $3
		 AND NOT EXISTS (SELECT 1 FROM tasks WHERE status = $1 AND id != $2)`,
		string(model.TaskStatusRunning), taskID, string(model.TaskStatusPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: start task %s", taskID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) FinishTask(ctx context.Context, taskID string, status model.TaskStatus, stats model.TaskStats, logs string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal task stats")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, finished_at = now(), stats = $2, logs = $3 WHERE id = $4`,
		string(status), string(statsJSON), logs, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish task %s", taskID)
	}
	return checkTag(tag, "task")
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	var t model.Task
	var statsJSON string
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, created_at, finished_at, stats, logs FROM tasks WHERE id = $1`,
		taskID,
	).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.FinishedAt, &statsJSON, &t.Logs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task %s", taskID)
	}
	if err := json.Unmarshal([]byte(statsJSON), &t.Stats); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal task stats")
	}
	return &t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT id, status, created_at, finished_at, stats, logs FROM tasks WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var statsJSON string
		if err := rows.Scan(&t.ID, &t.Status, &t.CreatedAt, &t.FinishedAt, &statsJSON, &t.Logs); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		if err := json.Unmarshal([]byte(statsJSON), &t.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal task stats")
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: list tasks iterate")
}

// --- Registry file records ---

func (s *PostgresStore) CreateIngestFile(ctx context.Context, kind model.IngestFileKind, path string) (*model.IngestFile, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_files (id, kind, path, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		id, string(kind), path, string(model.IngestFileProcessing), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert ingest file")
	}
	return &model.IngestFile{ID: id, Kind: kind, Path: path, State: model.IngestFileProcessing, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) FinishIngestFile(ctx context.Context, id string, state model.IngestFileState, logs string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_files SET state = $1, logs = $2, updated_at = now() WHERE id = $3`,
		string(state), logs, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish ingest file %s", id)
	}
	return checkTag(tag, "ingest file")
}

// --- helpers ---

func checkTag(tag pgconn.CommandTag, entity string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found", entity)
	}
	return nil
}
