package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opendatar/catalog-indexer/internal/catalog"
	"github.com/opendatar/catalog-indexer/internal/fetcher"
	"github.com/opendatar/catalog-indexer/internal/model"
)

// NodeReport summarizes the ingestion of one node's catalog.
type NodeReport struct {
	CatalogID     string
	Distributions int
	Indexable     int
	Failed        int
}

// Line renders the report as one aggregated log line.
func (r NodeReport) Line() string {
	return fmt.Sprintf("%s: %d distributions read, %d indexable, %d failed",
		r.CatalogID, r.Distributions, r.Indexable, r.Failed)
}

// ReadNode downloads and parses the node's catalog document and runs the
// loader over every distribution in it. Per-distribution failures (transport
// errors, field conflicts) are logged and skipped; a catalog download or
// parse failure fails the whole node.
func ReadNode(ctx context.Context, node model.Node, loader *Loader, f fetcher.Fetcher, readLocal bool) (NodeReport, error) {
	report := NodeReport{CatalogID: node.CatalogID}
	log := zap.L().With(zap.String("component", "indexing.reader"), zap.String("catalog", node.CatalogID))

	doc, err := readCatalogDocument(ctx, node, f, readLocal)
	if err != nil {
		return report, err
	}

	// Every dataset starts the read absent; the loader re-marks the ones
	// still published, leaving vanished datasets with present=false.
	if err := loader.store.MarkDatasetsAbsent(ctx, node.CatalogID); err != nil {
		return report, err
	}

	for _, ref := range doc.Distributions() {
		report.Distributions++
		dist, err := loader.Upsert(ctx, ref, doc, node.CatalogID)
		if err != nil {
			report.Failed++
			identifier, _ := ref.Distribution[catalog.KeyIdentifier].(string)
			log.Warn("distribution skipped",
				zap.String("distribution", identifier),
				zap.Error(err),
			)
			continue
		}
		if dist != nil {
			report.Indexable++
		}
	}

	// The load completed: nothing under this catalog is new anymore.
	if err := loader.store.ClearNewFlags(ctx, node.CatalogID); err != nil {
		return report, err
	}
	return report, nil
}

func readCatalogDocument(ctx context.Context, node model.Node, f fetcher.Fetcher, readLocal bool) (catalog.Document, error) {
	if readLocal {
		return catalog.ParseFile(node.CatalogURL)
	}
	body, err := f.Fetch(ctx, node.CatalogURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return catalog.Parse(body)
}
