package model

import "time"

// Catalog is the top-level metadata document published by one federated node.
type Catalog struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Metadata   string    `json:"metadata"` // filtered JSON blob
	New        bool      `json:"new"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Dataset belongs to a Catalog. Identifier is unique within its catalog.
type Dataset struct {
	ID           int64      `json:"id"`
	CatalogID    int64      `json:"catalog_id"`
	Identifier   string     `json:"identifier"`
	Metadata     string     `json:"metadata"`
	Indexable    bool       `json:"indexable"`
	Present      bool       `json:"present"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	New          bool       `json:"new"`
}

// Distribution belongs to a Dataset. Identifier is unique within its dataset.
type Distribution struct {
	ID          int64      `json:"id"`
	DatasetID   int64      `json:"dataset_id"`
	Identifier  string     `json:"identifier"`
	Metadata    string     `json:"metadata"`
	DownloadURL string     `json:"download_url"`
	Periodicity string     `json:"periodicity,omitempty"`
	DataHash    string     `json:"data_hash,omitempty"`
	Data        []byte     `json:"-"` // last successfully stored file content
	Indexable   bool       `json:"indexable"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	New         bool       `json:"new"`
}

// Field is one column/series of a distribution. Identity is content-based:
// the fingerprint of its filtered metadata, unique across the whole store.
// The distribution attachment is reassignable across runs.
type Field struct {
	ID             int64  `json:"id"`
	DistributionID int64  `json:"distribution_id"`
	Fingerprint    string `json:"fingerprint"`
	Metadata       string `json:"metadata"`
	Error          bool   `json:"error"`
}

// Node is a federated data publisher.
type Node struct {
	ID           int64      `json:"id"`
	CatalogID    string     `json:"catalog_id"`
	CatalogURL   string     `json:"catalog_url"`
	Indexable    bool       `json:"indexable"`
	RegisterDate *time.Time `json:"register_date,omitempty"`
	ReleaseDate  *time.Time `json:"release_date,omitempty"`
	VerifySSL    bool       `json:"verify_ssl"`
}

// SetIndexable flips the indexable flag. The release date is recorded on the
// first false-to-true transition and never overwritten afterwards.
func (n *Node) SetIndexable(indexable bool, now time.Time) {
	if indexable && !n.Indexable && n.ReleaseDate == nil {
		d := now.UTC()
		n.ReleaseDate = &d
	}
	n.Indexable = indexable
}
