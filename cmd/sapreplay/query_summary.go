package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"sapreplay/internal/store"
)

func querySummaryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary <match-or-participation-id>",
		Short: "Show the summary of one match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySummary(args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func runQuerySummary(id string, asJSON bool) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		summary, err := db.GetSummary(ctx, id)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("replay %q not found", id)
		}
		if asJSON {
			payload, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(payload))
			return nil
		}
		renderSummary(os.Stdout, *summary)
		return nil
	})
}
