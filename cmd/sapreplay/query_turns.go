package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sapreplay/internal/store"
)

func queryTurnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turns <match-or-participation-id>",
		Short: "Show how long each shop turn took",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryTurns(args[0])
		},
	}
	return cmd
}

func runQueryTurns(id string) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		intervals, err := db.GetTurnIntervals(ctx, id)
		if err != nil {
			return err
		}
		if len(intervals) == 0 {
			fmt.Fprintln(os.Stdout, "No turn durations found.")
			return nil
		}
		renderTurns(os.Stdout, intervals)
		return nil
	})
}
