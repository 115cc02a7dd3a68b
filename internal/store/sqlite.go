package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/opendatar/catalog-indexer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS catalogs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	is_new     INTEGER NOT NULL DEFAULT 1,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS datasets (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	catalog_id    INTEGER NOT NULL REFERENCES catalogs(id),
	identifier    TEXT NOT NULL,
	metadata      TEXT NOT NULL DEFAULT '{}',
	indexable     INTEGER NOT NULL DEFAULT 0,
	present       INTEGER NOT NULL DEFAULT 0,
	last_reviewed DATETIME,
	is_new        INTEGER NOT NULL DEFAULT 1,
	UNIQUE(catalog_id, identifier)
);

CREATE TABLE IF NOT EXISTS distributions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id   INTEGER NOT NULL REFERENCES datasets(id),
	identifier   TEXT NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	download_url TEXT NOT NULL DEFAULT '',
	periodicity  TEXT NOT NULL DEFAULT '',
	data_hash    TEXT NOT NULL DEFAULT '',
	data         BLOB,
	indexable    INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME,
	is_new       INTEGER NOT NULL DEFAULT 1,
	UNIQUE(dataset_id, identifier)
);

CREATE TABLE IF NOT EXISTS fields (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	distribution_id INTEGER NOT NULL REFERENCES distributions(id),
	fingerprint     TEXT NOT NULL UNIQUE,
	metadata        TEXT NOT NULL DEFAULT '{}',
	error           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS nodes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	catalog_id    TEXT NOT NULL UNIQUE,
	catalog_url   TEXT NOT NULL DEFAULT '',
	indexable     INTEGER NOT NULL DEFAULT 0,
	register_date DATETIME,
	release_date  DATETIME,
	verify_ssl    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME,
	stats       TEXT NOT NULL DEFAULT '{}',
	logs        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ingest_files (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	path       TEXT NOT NULL,
	state      TEXT NOT NULL DEFAULT 'pending',
	logs       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_datasets_catalog_id ON datasets(catalog_id);
CREATE INDEX IF NOT EXISTS idx_distributions_dataset_id ON distributions(dataset_id);
CREATE INDEX IF NOT EXISTS idx_fields_distribution_id ON fields(distribution_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Catalogs ---

func (s *SQLiteStore) UpsertCatalog(ctx context.Context, identifier, title, metadata string) (*model.Catalog, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalogs (identifier, title, metadata, is_new, updated_at) VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(identifier) DO UPDATE SET title = excluded.title, metadata = excluded.metadata, updated_at = excluded.updated_at`,
		identifier, title, metadata, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert catalog %s", identifier)
	}
	return s.GetCatalog(ctx, identifier)
}

func (s *SQLiteStore) GetCatalog(ctx context.Context, identifier string) (*model.Catalog, error) {
	var c model.Catalog
	err := s.db.QueryRowContext(ctx,
		`SELECT id, identifier, title, metadata, is_new, updated_at FROM catalogs WHERE identifier = ?`,
		identifier,
	).Scan(&c.ID, &c.Identifier, &c.Title, &c.Metadata, &c.New, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get catalog %s", identifier)
	}
	return &c, nil
}

func (s *SQLiteStore) ClearNewFlags(ctx context.Context, catalogIdentifier string) error {
	stmts := []string{
		`UPDATE catalogs SET is_new = 0 WHERE identifier = ?`,
		`UPDATE datasets SET is_new = 0 WHERE catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = ?)`,
		`UPDATE distributions SET is_new = 0 WHERE dataset_id IN
		 (SELECT d.id FROM datasets d JOIN catalogs c ON c.id = d.catalog_id WHERE c.identifier = ?)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt, catalogIdentifier); err != nil {
			return eris.Wrapf(err, "sqlite: clear new flags %s", catalogIdentifier)
		}
	}
	return nil
}

// --- Datasets ---

func (s *SQLiteStore) GetOrCreateDataset(ctx context.Context, catalogID int64, identifier string, defaultIndexable bool) (*model.Dataset, bool, error) {
	ds, err := s.getDatasetByKey(ctx, catalogID, identifier)
	if err != nil {
		return nil, false, err
	}
	if ds != nil {
		return ds, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (catalog_id, identifier, indexable, is_new) VALUES (?, ?, ?, 1)`,
		catalogID, identifier, defaultIndexable,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: insert dataset %s", identifier)
	}
	ds, err = s.getDatasetByKey(ctx, catalogID, identifier)
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

func (s *SQLiteStore) getDatasetByKey(ctx context.Context, catalogID int64, identifier string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, catalog_id, identifier, metadata, indexable, present, last_reviewed, is_new
		 FROM datasets WHERE catalog_id = ? AND identifier = ?`,
		catalogID, identifier,
	)
	return scanDataset(row)
}

func (s *SQLiteStore) UpdateDataset(ctx context.Context, id int64, metadata string, present bool, reviewed time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET metadata = ?, present = ?, last_reviewed = ? WHERE id = ?`,
		metadata, present, reviewed.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update dataset %d", id)
	}
	return checkRowsAffected(res, "dataset")
}

func (s *SQLiteStore) MarkDatasetsAbsent(ctx context.Context, catalogIdentifier string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET present = 0 WHERE catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = ?)`,
		catalogIdentifier,
	)
	return eris.Wrapf(err, "sqlite: mark datasets absent %s", catalogIdentifier)
}

func (s *SQLiteStore) GetDataset(ctx context.Context, catalogIdentifier, identifier string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT d.id, d.catalog_id, d.identifier, d.metadata, d.indexable, d.present, d.last_reviewed, d.is_new
		 FROM datasets d JOIN catalogs c ON c.id = d.catalog_id
		 WHERE c.identifier = ? AND d.identifier = ?`,
		catalogIdentifier, identifier,
	)
	return scanDataset(row)
}

func (s *SQLiteStore) SetDatasetIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET indexable = ? WHERE identifier = ? AND catalog_id IN
		 (SELECT id FROM catalogs WHERE identifier = ?)`,
		indexable, identifier, catalogIdentifier,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: set dataset indexable %s/%s", catalogIdentifier, identifier)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

// --- Distributions ---

func (s *SQLiteStore) GetOrCreateDistribution(ctx context.Context, datasetID int64, identifier string) (*model.Distribution, bool, error) {
	d, err := s.getDistributionByKey(ctx, datasetID, identifier)
	if err != nil {
		return nil, false, err
	}
	if d != nil {
		return d, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO distributions (dataset_id, identifier, is_new) VALUES (?, ?, 1)`,
		datasetID, identifier,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: insert distribution %s", identifier)
	}
	d, err = s.getDistributionByKey(ctx, datasetID, identifier)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func (s *SQLiteStore) getDistributionByKey(ctx context.Context, datasetID int64, identifier string) (*model.Distribution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset_id, identifier, metadata, download_url, periodicity, data_hash, data, indexable, last_updated, is_new
		 FROM distributions WHERE dataset_id = ? AND identifier = ?`,
		datasetID, identifier,
	)
	return scanDistribution(row)
}

func (s *SQLiteStore) SaveDistribution(ctx context.Context, d *model.Distribution) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE distributions SET metadata = ?, download_url = ?, periodicity = ?, data_hash = ?, data = ?,
		 indexable = ?, last_updated = ? WHERE id = ?`,
		d.Metadata, d.DownloadURL, d.Periodicity, d.DataHash, d.Data, d.Indexable, d.LastUpdated, d.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save distribution %d", d.ID)
	}
	return checkRowsAffected(res, "distribution")
}

func (s *SQLiteStore) GetDistribution(ctx context.Context, catalogIdentifier, identifier string) (*model.Distribution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT di.id, di.dataset_id, di.identifier, di.metadata, di.download_url, di.periodicity, di.data_hash, di.data,
		 di.indexable, di.last_updated, di.is_new
		 FROM distributions di
		 JOIN datasets ds ON ds.id = di.dataset_id
		 JOIN catalogs c ON c.id = ds.catalog_id
		 WHERE c.identifier = ? AND di.identifier = ?`,
		catalogIdentifier, identifier,
	)
	return scanDistribution(row)
}

func (s *SQLiteStore) SetDistributionIndexable(ctx context.Context, catalogIdentifier, identifier string, indexable bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE distributions SET indexable = ? WHERE identifier = ? AND dataset_id IN
		 (SELECT ds.id FROM datasets ds JOIN catalogs c ON c.id = ds.catalog_id WHERE c.identifier = ?)`,
		indexable, identifier, catalogIdentifier,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: set distribution indexable %s/%s", catalogIdentifier, identifier)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

// --- Fields ---

func (s *SQLiteStore) GetFieldByFingerprint(ctx context.Context, fingerprint string) (*model.Field, string, error) {
	var f model.Field
	var catalogIdentifier string
	err := s.db.QueryRowContext(ctx,
		`SELECT f.id, f.distribution_id, f.fingerprint, f.metadata, f.error, c.identifier
		 FROM fields f
		 JOIN distributions di ON di.id = f.distribution_id
		 JOIN datasets ds ON ds.id = di.dataset_id
		 JOIN catalogs c ON c.id = ds.catalog_id
		 WHERE f.fingerprint = ?`,
		fingerprint,
	).Scan(&f.ID, &f.DistributionID, &f.Fingerprint, &f.Metadata, &f.Error, &catalogIdentifier)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: get field by fingerprint")
	}
	return &f, catalogIdentifier, nil
}

func (s *SQLiteStore) CreateField(ctx context.Context, distributionID int64, fingerprint, metadata string) (*model.Field, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fields (distribution_id, fingerprint, metadata) VALUES (?, ?, ?)`,
		distributionID, fingerprint, metadata,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert field")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: field insert id")
	}
	return &model.Field{ID: id, DistributionID: distributionID, Fingerprint: fingerprint, Metadata: metadata}, nil
}

func (s *SQLiteStore) ReattachField(ctx context.Context, fieldID, distributionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fields SET distribution_id = ? WHERE id = ?`,
		distributionID, fieldID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reattach field %d", fieldID)
	}
	return checkRowsAffected(res, "field")
}

func (s *SQLiteStore) MarkFieldError(ctx context.Context, fieldID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fields SET error = 1 WHERE id = ?`,
		fieldID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark field error %d", fieldID)
	}
	return checkRowsAffected(res, "field")
}

// --- Nodes ---

func (s *SQLiteStore) SaveNode(ctx context.Context, n *model.Node) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(catalog_id) DO UPDATE SET catalog_url = excluded.catalog_url, indexable = excluded.indexable,
		 register_date = excluded.register_date, release_date = excluded.release_date, verify_ssl = excluded.verify_ssl`,
		n.CatalogID, n.CatalogURL, n.Indexable, n.RegisterDate, n.ReleaseDate, n.VerifySSL,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save node %s", n.CatalogID)
	}
	saved, err := s.GetNode(ctx, n.CatalogID)
	if err != nil {
		return err
	}
	n.ID = saved.ID
	return nil
}

func (s *SQLiteStore) GetNode(ctx context.Context, catalogID string) (*model.Node, error) {
	var n model.Node
	err := s.db.QueryRowContext(ctx,
		`SELECT id, catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl
		 FROM nodes WHERE catalog_id = ?`,
		catalogID,
	).Scan(&n.ID, &n.CatalogID, &n.CatalogURL, &n.Indexable, &n.RegisterDate, &n.ReleaseDate, &n.VerifySSL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get node %s", catalogID)
	}
	return &n, nil
}

func (s *SQLiteStore) ListNodes(ctx context.Context, indexableOnly bool) ([]model.Node, error) {
	query := `SELECT id, catalog_id, catalog_url, indexable, register_date, release_date, verify_ssl FROM nodes`
	if indexableOnly {
		query += ` WHERE indexable = 1`
	}
	query += ` ORDER BY catalog_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list nodes")
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID, &n.CatalogID, &n.CatalogURL, &n.Indexable, &n.RegisterDate, &n.ReleaseDate, &n.VerifySSL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "sqlite: list nodes iterate")
}

func (s *SQLiteStore) DeleteNode(ctx context.Context, catalogID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE catalog_id = ?`, catalogID)
	return eris.Wrapf(err, "sqlite: delete node %s", catalogID)
}

// --- Tasks ---

func (s *SQLiteStore) CreateTask(ctx context.Context) (*model.Task, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, status, created_at) VALUES (?, ?, ?)`,
		id, string(model.TaskStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert task")
	}
	return &model.Task{ID: id, Status: model.TaskStatusPending, CreatedAt: now}, nil
}

func (s *SQLiteStore) StartTask(ctx context.Context, taskID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ? AND status = ?
		 AND NOT EXISTS (SELECT 1 FROM tasks WHERE status = ? AND id != ?)`,
		string(model.TaskStatusRunning), taskID, string(model.TaskStatusPending),
		string(model.TaskStatusRunning), taskID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: start task %s", taskID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) FinishTask(ctx context.Context, taskID string, status model.TaskStatus, stats model.TaskStats, logs string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal task stats")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, finished_at = ?, stats = ?, logs = ? WHERE id = ?`,
		string(status), time.Now().UTC(), string(statsJSON), logs, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish task %s", taskID)
	}
	return checkRowsAffected(res, "task")
}

func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, created_at, finished_at, stats, logs FROM tasks WHERE id = ?`,
		taskID,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT id, status, created_at, finished_at, stats, logs FROM tasks WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: list tasks iterate")
}

// --- Registry file records ---

func (s *SQLiteStore) CreateIngestFile(ctx context.Context, kind model.IngestFileKind, path string) (*model.IngestFile, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_files (id, kind, path, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), path, string(model.IngestFileProcessing), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ingest file")
	}
	return &model.IngestFile{ID: id, Kind: kind, Path: path, State: model.IngestFileProcessing, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) FinishIngestFile(ctx context.Context, id string, state model.IngestFileState, logs string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_files SET state = ?, logs = ?, updated_at = ? WHERE id = ?`,
		string(state), logs, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish ingest file %s", id)
	}
	return checkRowsAffected(res, "ingest file")
}

// --- helpers ---

func checkRowsAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found", entity)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*model.Dataset, error) {
	var ds model.Dataset
	err := row.Scan(&ds.ID, &ds.CatalogID, &ds.Identifier, &ds.Metadata, &ds.Indexable, &ds.Present, &ds.LastReviewed, &ds.New)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan dataset")
	}
	return &ds, nil
}

func scanDistribution(row scannable) (*model.Distribution, error) {
	var d model.Distribution
	err := row.Scan(&d.ID, &d.DatasetID, &d.Identifier, &d.Metadata, &d.DownloadURL, &d.Periodicity,
		&d.DataHash, &d.Data, &d.Indexable, &d.LastUpdated, &d.New)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan distribution")
	}
	return &d, nil
}

func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var statsJSON string
	err := row.Scan(&t.ID, &t.Status, &t.CreatedAt, &t.FinishedAt, &statsJSON, &t.Logs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan task")
	}
	if err := json.Unmarshal([]byte(statsJSON), &t.Stats); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal task stats")
	}
	return &t, nil
}
