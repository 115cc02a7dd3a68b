package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/opendatar/catalog-indexer/internal/indexing"
)

var (
	readWhitelist bool
	readLocal     bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Run one ingestion over every indexable node",
	Long:  "Creates a task, reads each indexable node's catalog document and upserts the metadata hierarchy, refreshing distribution files whose content changed. Refuses to start while another run is active.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		task, err := st.CreateTask(ctx)
		if err != nil {
			return err
		}
		started, err := st.StartTask(ctx, task.ID)
		if err != nil {
			return err
		}
		if !started {
			return eris.New("another ingestion is already running")
		}

		engine := indexing.NewEngine(st, indexing.Blacklists{
			Catalog:      cfg.Blacklist.Catalog,
			Dataset:      cfg.Blacklist.Dataset,
			Distribution: cfg.Blacklist.Distribution,
			Field:        cfg.Blacklist.Field,
		}, indexing.FetchOptions{
			UserAgent:   cfg.Ingest.UserAgent,
			Timeout:     time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
			RatePerHost: rate.Limit(cfg.Ingest.RatePerHost),
		})

		if err := engine.Run(ctx, task, indexing.Options{
			Whitelist: readWhitelist,
			ReadLocal: readLocal,
		}); err != nil {
			return err
		}

		finished, err := st.GetTask(ctx, task.ID)
		if err != nil {
			return err
		}
		fmt.Printf("task %s: %s\n", finished.ID, finished.Status)
		if finished.Logs != "" {
			fmt.Println(finished.Logs)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().BoolVar(&readWhitelist, "whitelist", false, "mark datasets created during this run indexable by default")
	readCmd.Flags().BoolVar(&readLocal, "local", false, "read catalogs and distribution files from the local filesystem")
	rootCmd.AddCommand(readCmd)
}
