// Package nodes processes node register files: YAML documents declaring the
// federation membership of catalog publishers.
package nodes

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

// FileReadError is the log recorded when a register file cannot be parsed.
const FileReadError = "node register file could not be read"

// RegisterEntry is one node declaration in a register file.
type RegisterEntry struct {
	URL       string `yaml:"url"`
	Federated bool   `yaml:"federated"`
	VerifySSL bool   `yaml:"verify_ssl"`
}

// RegisterFile maps catalog identifiers to their declarations.
type RegisterFile map[string]RegisterEntry

// ParseRegisterFile decodes a register file. A malformed document is a
// terminal error; nothing is committed from it.
func ParseRegisterFile(data []byte) (RegisterFile, error) {
	var rf RegisterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrap(err, "nodes: parse register file")
	}
	return rf, nil
}

// Processor applies register files to the node table.
type Processor struct {
	store store.Store
}

// NewProcessor creates a register file processor.
func NewProcessor(st store.Store) *Processor {
	return &Processor{store: st}
}

// ProcessFile reads, parses and applies the register file at path, returning
// one log line per entry.
func (p *Processor) ProcessFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "nodes: read register file %s", path)
	}
	rf, err := ParseRegisterFile(data)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, rf)
}

// Process upserts a node per federated entry. Non-federated entries are
// never created; existing nodes that lost federation become delete
// candidates, subject to the ConfirmDelete rule.
func (p *Processor) Process(ctx context.Context, rf RegisterFile) ([]string, error) {
	log := zap.L().With(zap.String("component", "nodes.register"))
	now := time.Now().UTC()

	var logs []string
	for catalogID, entry := range rf {
		node, err := p.store.GetNode(ctx, catalogID)
		if err != nil {
			return logs, err
		}

		if !entry.Federated {
			if node == nil {
				continue
			}
			deleted, err := p.ConfirmDelete(ctx, node)
			if err != nil {
				return logs, err
			}
			if deleted {
				logs = append(logs, fmt.Sprintf("%s: removed (no longer federated)", catalogID))
			} else {
				logs = append(logs, fmt.Sprintf("%s: still indexable, not removed", catalogID))
			}
			continue
		}

		if node == nil {
			node = &model.Node{CatalogID: catalogID, RegisterDate: &now, VerifySSL: entry.VerifySSL}
			logs = append(logs, fmt.Sprintf("%s: registered", catalogID))
		} else {
			logs = append(logs, fmt.Sprintf("%s: updated", catalogID))
		}
		node.CatalogURL = entry.URL
		node.SetIndexable(true, now)

		if err := p.store.SaveNode(ctx, node); err != nil {
			return logs, err
		}
		log.Info("node registered", zap.String("catalog", catalogID), zap.String("url", entry.URL))
	}
	return logs, nil
}

// ConfirmDelete removes a node only while it is not indexable. Deleting an
// indexable (federated) node is a silent no-op. Reports whether the node
// was removed.
func (p *Processor) ConfirmDelete(ctx context.Context, node *model.Node) (bool, error) {
	if node.Indexable {
		return false, nil
	}
	if err := p.store.DeleteNode(ctx, node.CatalogID); err != nil {
		return false, err
	}
	return true, nil
}
