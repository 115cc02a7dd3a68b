package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/whitelist"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Bulk indexability toggling",
}

var whitelistApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Mark the datasets and distributions named in a whitelist file indexable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		record, err := st.CreateIngestFile(ctx, model.IngestFileWhitelist, args[0])
		if err != nil {
			return err
		}

		logs, err := whitelist.NewToggler(st).ProcessFile(ctx, args[0])
		if err != nil {
			if ferr := st.FinishIngestFile(ctx, record.ID, model.IngestFileFailed, whitelist.FileReadError); ferr != nil {
				return ferr
			}
			return err
		}

		joined := strings.Join(logs, "\n")
		if err := st.FinishIngestFile(ctx, record.ID, model.IngestFileProcessed, joined); err != nil {
			return err
		}
		fmt.Println(joined)
		return nil
	},
}

func init() {
	whitelistCmd.AddCommand(whitelistApplyCmd)
	rootCmd.AddCommand(whitelistCmd)
}
