package indexing

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/opendatar/catalog-indexer/internal/fetcher"
	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

// Options configures one ingestion run.
type Options struct {
	// Whitelist marks datasets created during this run indexable by default.
	Whitelist bool
	// ReadLocal reads catalog documents and distribution files from the
	// local filesystem instead of fetching them.
	ReadLocal bool
}

// FetchOptions carries the transport settings shared by every node fetch.
type FetchOptions struct {
	UserAgent   string
	Timeout     time.Duration
	RatePerHost rate.Limit
}

// Engine iterates indexable nodes and runs the ingestion pipeline per node.
//
// Nodes are processed sequentially: the cross-catalog field conflict check
// reads total store state, and concurrent writers could race on the
// fingerprint lookup/insert. The engine performs no locking of its own;
// callers must gate runs through Store.StartTask so at most one run is
// active at a time.
type Engine struct {
	store      store.Store
	blacklists Blacklists
	fetchOpts  FetchOptions
}

// NewEngine creates an ingestion engine.
func NewEngine(st store.Store, bl Blacklists, fetchOpts FetchOptions) *Engine {
	return &Engine{store: st, blacklists: bl, fetchOpts: fetchOpts}
}

// Run processes every indexable node and finishes the task with aggregated
// stats and logs. Node-level failures are recorded and do not abort the run;
// the task ends in error status only when no node could be processed.
func (e *Engine) Run(ctx context.Context, task *model.Task, opts Options) error {
	log := zap.L().With(zap.String("component", "indexing.engine"), zap.String("task", task.ID))

	nodes, err := e.store.ListNodes(ctx, true)
	if err != nil {
		e.abort(ctx, task.ID, model.TaskStats{}, err.Error(), log)
		return err
	}
	log.Info("starting ingestion", zap.Int("nodes", len(nodes)))

	var stats model.TaskStats
	var logs []string

	for _, node := range nodes {
		select {
		case <-ctx.Done():
			logs = append(logs, "run canceled: "+ctx.Err().Error())
			e.abort(ctx, task.ID, stats, strings.Join(logs, "\n"), log)
			return ctx.Err()
		default:
		}

		resolver := e.resolverFor(node, opts)
		loader := NewLoader(e.store, resolver, e.blacklists, opts.Whitelist, &stats)
		start := time.Now()
		report, err := ReadNode(ctx, node, loader, resolver, opts.ReadLocal)
		elapsed := time.Since(start)

		if err != nil {
			stats.NodesFailed++
			logs = append(logs, node.CatalogID+": "+err.Error())
			log.Error("node failed", zap.String("catalog", node.CatalogID), zap.Error(err), zap.Duration("elapsed", elapsed))
			continue
		}

		stats.NodesProcessed++
		logs = append(logs, report.Line())
		log.Info("node complete",
			zap.String("catalog", node.CatalogID),
			zap.Int("distributions", report.Distributions),
			zap.Int("indexable", report.Indexable),
			zap.Duration("elapsed", elapsed),
		)
	}

	status := model.TaskStatusFinished
	if len(nodes) > 0 && stats.NodesProcessed == 0 {
		status = model.TaskStatusError
	}

	// The run record must close even when the surrounding context is
	// already tearing down, or the CAS blocks every future run.
	if err := e.store.FinishTask(context.WithoutCancel(ctx), task.ID, status, stats, strings.Join(logs, "\n")); err != nil {
		return err
	}

	log.Info("ingestion finished",
		zap.String("status", string(status)),
		zap.Int("nodes_processed", stats.NodesProcessed),
		zap.Int("nodes_failed", stats.NodesFailed),
		zap.Int("distributions_updated", stats.DistributionsUpdated),
	)
	return nil
}

// abort closes the task as errored when the run cannot continue. The write
// ignores the (possibly canceled) run context so the task never stays stuck
// in running.
func (e *Engine) abort(ctx context.Context, taskID string, stats model.TaskStats, logs string, log *zap.Logger) {
	if err := e.store.FinishTask(context.WithoutCancel(ctx), taskID, model.TaskStatusError, stats, logs); err != nil {
		log.Error("finish task failed", zap.Error(err))
	}
}

// resolverFor builds a fetcher honoring the node's TLS verification flag.
func (e *Engine) resolverFor(node model.Node, opts Options) fetcher.Fetcher {
	return fetcher.NewResolver(fetcher.HTTPOptions{
		UserAgent:   e.fetchOpts.UserAgent,
		Timeout:     e.fetchOpts.Timeout,
		VerifySSL:   node.VerifySSL,
		RatePerHost: e.fetchOpts.RatePerHost,
	}, opts.ReadLocal)
}
