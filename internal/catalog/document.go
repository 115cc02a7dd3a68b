// Package catalog reads data.json open-data catalog documents and provides
// the metadata handling used by the indexing pipeline: key accessors,
// blacklist filtering and canonical field fingerprints.
package catalog

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Well-known data.json keys.
const (
	KeyIdentifier        = "identifier"
	KeyTitle             = "title"
	KeyDataset           = "dataset"
	KeyDistribution      = "distribution"
	KeyField             = "field"
	KeyDownloadURL       = "downloadURL"
	KeySpecialType       = "specialType"
	KeySpecialTypeDetail = "specialTypeDetail"

	// TimeIndex marks the field carrying the periodic time dimension of a
	// distribution; its detail value becomes the distribution periodicity.
	TimeIndex = "time_index"
)

// Document is a parsed data.json catalog. Nested structure is kept as plain
// maps and slices; schema validation is out of scope here.
type Document map[string]any

// Parse decodes a data.json document from r.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "catalog: decode document")
	}
	return doc, nil
}

// ParseFile reads and decodes a data.json document from disk.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return Parse(f)
}

// Identifier returns the catalog's own identifier, if present.
func (d Document) Identifier() string {
	return stringValue(d, KeyIdentifier)
}

// Title returns the catalog title, if present.
func (d Document) Title() string {
	return stringValue(d, KeyTitle)
}

// Datasets returns the dataset entries of the catalog.
func (d Document) Datasets() []map[string]any {
	return mapSlice(d[KeyDataset])
}

// Dataset returns the dataset with the given identifier, or nil.
func (d Document) Dataset(identifier string) map[string]any {
	for _, ds := range d.Datasets() {
		if stringValue(ds, KeyIdentifier) == identifier {
			return ds
		}
	}
	return nil
}

// DistributionRef pairs a distribution entry with its owning dataset identifier.
type DistributionRef struct {
	DatasetIdentifier string
	Distribution      map[string]any
}

// Distributions flattens every distribution in the catalog, tagged with the
// identifier of the dataset it belongs to.
func (d Document) Distributions() []DistributionRef {
	var refs []DistributionRef
	for _, ds := range d.Datasets() {
		dsID := stringValue(ds, KeyIdentifier)
		for _, dist := range mapSlice(ds[KeyDistribution]) {
			refs = append(refs, DistributionRef{DatasetIdentifier: dsID, Distribution: dist})
		}
	}
	return refs
}

// Metadata returns a copy of the catalog-level metadata with the dataset
// collection dropped.
func (d Document) Metadata() map[string]any {
	return withoutKey(d, KeyDataset)
}

// DatasetMetadata returns a copy of a dataset entry with its distributions dropped.
func DatasetMetadata(dataset map[string]any) map[string]any {
	return withoutKey(dataset, KeyDistribution)
}

// DistributionMetadata returns a copy of a distribution entry with its fields dropped.
func DistributionMetadata(distribution map[string]any) map[string]any {
	return withoutKey(distribution, KeyField)
}

// Fields returns the field entries of a distribution.
func Fields(distribution map[string]any) []map[string]any {
	return mapSlice(distribution[KeyField])
}

// Periodicity returns the specialTypeDetail of the first time-index field,
// or "" when the distribution has none.
func Periodicity(fields []map[string]any) string {
	for _, f := range fields {
		if stringValue(f, KeySpecialType) == TimeIndex {
			return stringValue(f, KeySpecialTypeDetail)
		}
	}
	return ""
}

func stringValue(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapSlice(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func withoutKey(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == key {
			continue
		}
		out[k] = v
	}
	return out
}
