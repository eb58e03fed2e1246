package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gostair/adapters/db"
	"gostair/adapters/excel"
	"gostair/domain/core"
	"gostair/internal/config"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a stored session to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseSessionID(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := db.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListTrials(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return core.ErrSessionNotFound
			}
			summaries, err := store.ListSummaries(cmd.Context(), id)
			if err != nil {
				return err
			}

			if err := excel.Export(records, summaries, out); err != nil {
				return err
			}
			fmt.Printf("exported %d trials to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "session.xlsx", "Output workbook path")
	return cmd
}
