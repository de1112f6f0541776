package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func queryTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline <match-or-participation-id>",
		Short: "Show the normalized action timeline of a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryTimeline(args[0], nil)
		},
	}
	return cmd
}

func queryTallyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally <match-or-participation-id> <kind>",
		Short: "Show the running per-turn count of one action kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := replay.ParseKind(args[1])
			if err != nil {
				return err
			}
			return runQueryTimeline(args[0], &kind)
		},
	}
	return cmd
}

func runQueryTimeline(id string, tally *replay.Kind) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		summary, err := db.GetSummary(ctx, id)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("replay %q not found", id)
		}
		actions, err := db.GetActions(ctx, id)
		if err != nil {
			return err
		}
		renderTimeline(os.Stdout, actions, tally)
		return nil
	})
}
