package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/opendatar/catalog-indexer/internal/model"
	"github.com/opendatar/catalog-indexer/internal/store"
)

var tasksStatus string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect ingestion runs",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingestion tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tasks, err := st.ListTasks(ctx, store.TaskFilter{Status: model.TaskStatus(tasksStatus)})
		if err != nil {
			return err
		}
		for _, t := range tasks {
			finished := "-"
			if t.FinishedAt != nil {
				finished = t.FinishedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-8s  created=%s finished=%s\n",
				t.ID, t.Status, t.CreatedAt.Format("2006-01-02 15:04:05"), finished)
		}
		return nil
	},
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task with stats and logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		t, err := st.GetTask(ctx, args[0])
		if err != nil {
			return err
		}
		if t == nil {
			return eris.Errorf("task not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status (pending, running, finished, error)")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
	rootCmd.AddCommand(tasksCmd)
}
