package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/opendatar/catalog-indexer/internal/store"
)

// openStore creates the store for the configured driver.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q (valid: sqlite, postgres)", cfg.Store.Driver)
	}
}
