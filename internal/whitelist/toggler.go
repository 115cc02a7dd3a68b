// Package whitelist flips indexable flags on datasets and distributions in
// bulk from a YAML registry file.
package whitelist

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/opendatar/catalog-indexer/internal/store"
)

// FileReadError is the log recorded when a whitelist file cannot be parsed.
const FileReadError = "whitelist file could not be read"

// Entry names the dataset and distribution identifiers of one catalog to
// mark indexable.
type Entry struct {
	Dataset      []string `yaml:"dataset"`
	Distribution []string `yaml:"distribution"`
}

// File maps catalog identifiers to their whitelist entries.
type File map[string]Entry

// Parse decodes a whitelist file. A malformed document is a terminal error
// and nothing is committed from it.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "whitelist: parse file")
	}
	return f, nil
}

// Toggler applies whitelist files to the store.
type Toggler struct {
	store store.Store
}

// NewToggler creates a whitelist toggler.
func NewToggler(st store.Store) *Toggler {
	return &Toggler{store: st}
}

// ProcessFile reads, parses and applies the whitelist at path.
func (t *Toggler) ProcessFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "whitelist: read file %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return t.Process(ctx, f)
}

// Process marks every named dataset and distribution indexable, producing
// one log line per entry. Unresolved identifiers are logged and skipped;
// processing continues with the remaining entries.
func (t *Toggler) Process(ctx context.Context, f File) ([]string, error) {
	catalogs := make([]string, 0, len(f))
	for catalogID := range f {
		catalogs = append(catalogs, catalogID)
	}
	sort.Strings(catalogs)

	var logs []string
	for _, catalogID := range catalogs {
		entry := f[catalogID]
		for _, datasetID := range entry.Dataset {
			found, err := t.store.SetDatasetIndexable(ctx, catalogID, datasetID, true)
			if err != nil {
				return logs, err
			}
			logs = append(logs, resultLine("dataset", catalogID, datasetID, found))
		}
		for _, distributionID := range entry.Distribution {
			found, err := t.store.SetDistributionIndexable(ctx, catalogID, distributionID, true)
			if err != nil {
				return logs, err
			}
			logs = append(logs, resultLine("distribution", catalogID, distributionID, found))
		}
	}
	return logs, nil
}

func resultLine(kind, catalogID, identifier string, found bool) string {
	if found {
		return fmt.Sprintf("%s %s/%s marked indexable", kind, catalogID, identifier)
	}
	return fmt.Sprintf("%s %s/%s not found", kind, catalogID, identifier)
}
