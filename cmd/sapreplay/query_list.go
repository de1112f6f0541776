package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func queryListCmd() *cobra.Command {
	var filter store.SummaryFilter
	var outcome string
	var mode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List match summaries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyListFlags(&filter, outcome, mode); err != nil {
				return err
			}
			return runQueryList(filter)
		},
	}
	cmd.Flags().StringVar(&filter.UserName, "user", "", "Substring of the replay owner's name")
	cmd.Flags().StringVar(&filter.OpponentName, "opponent", "", "Substring of an opponent's name")
	cmd.Flags().StringVar(&outcome, "outcome", "", "win, loss, draw, or abandoned")
	cmd.Flags().StringVar(&mode, "mode", "", "vs-ai or arena")
	cmd.Flags().BoolVar(&filter.RankedOnly, "ranked", false, "Only ranked matches")
	cmd.Flags().IntVar(&filter.MinTurns, "min-turns", 0, "Minimum number of turns")
	cmd.Flags().IntVar(&filter.Limit, "limit", store.DefaultListLimit, "Maximum number of matches")
	return cmd
}

func applyListFlags(filter *store.SummaryFilter, outcome, mode string) error {
	if outcome != "" {
		o, ok := replay.ParseOutcome(outcome)
		if !ok {
			return fmt.Errorf("unknown outcome %q", outcome)
		}
		filter.Outcome = &o
	}
	if mode != "" {
		m, ok := replay.ParseMode(mode)
		if !ok {
			return fmt.Errorf("unknown mode %q", mode)
		}
		filter.Mode = &m
	}
	return nil
}

func runQueryList(filter store.SummaryFilter) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		summaries, err := db.ListSummaries(ctx, filter)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stdout, "No replays found.")
			return nil
		}
		renderSummaries(os.Stdout, summaries)
		return nil
	})
}
