package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/nodes"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Manage federation nodes",
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		all, err := st.ListNodes(ctx, false)
		if err != nil {
			return err
		}
		for _, n := range all {
			release := "-"
			if n.ReleaseDate != nil {
				release = n.ReleaseDate.Format("2006-01-02")
			}
			fmt.Printf("%-20s indexable=%-5v released=%-10s %s\n", n.CatalogID, n.Indexable, release, n.CatalogURL)
		}
		return nil
	},
}

var nodesRegisterCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Process a node register file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		record, err := st.CreateIngestFile(ctx, model.IngestFileNodes, args[0])
		if err != nil {
			return err
		}

		logs, err := nodes.NewProcessor(st).ProcessFile(ctx, args[0])
		if err != nil {
			if ferr := st.FinishIngestFile(ctx, record.ID, model.IngestFileFailed, nodes.FileReadError); ferr != nil {
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

var nodesDeleteCmd = &cobra.Command{
	Use:   "delete <catalog_id>",
	Short: "Delete a node (no-op while it is indexable)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		node, err := st.GetNode(ctx, args[0])
		if err != nil {
			return err
		}
		if node == nil {
			return eris.Errorf("node not found: %s", args[0])
		}

		deleted, err := nodes.NewProcessor(st).ConfirmDelete(ctx, node)
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("%s is indexable, not deleted\n", node.CatalogID)
			return nil
		}
		fmt.Printf("%s deleted\n", node.CatalogID)
		return nil
	},
}

func newNodesToggleCmd(use, short string, indexable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <catalog_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			node, err := st.GetNode(ctx, args[0])
			if err != nil {
				return err
			}
			if node == nil {
				return eris.Errorf("node not found: %s", args[0])
			}

			node.SetIndexable(indexable, time.Now().UTC())
			if err := st.SaveNode(ctx, node); err != nil {
				return err
			}
			fmt.Printf("%s indexable=%v\n", node.CatalogID, node.Indexable)
			return nil
		},
	}
}

func init() {
	nodesCmd.AddCommand(nodesListCmd)
	nodesCmd.AddCommand(nodesRegisterCmd)
	nodesCmd.AddCommand(nodesDeleteCmd)
	nodesCmd.AddCommand(newNodesToggleCmd("enable", "Mark a node indexable", true))
	nodesCmd.AddCommand(newNodesToggleCmd("disable", "Mark a node non-indexable", false))
	rootCmd.AddCommand(nodesCmd)
}
