package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sapreplay/internal/store"
)

func querySearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <names>",
		Short: "Search matches by player and opponent names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(strings.Join(args, " "))
		},
	}
	return cmd
}

func runQuerySearch(query string) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		results, err := db.Search(ctx, query)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stdout, "No matches found.")
			return nil
		}

		tw := newTable(os.Stdout, table.Row{"Match", "Participation", "Started", "User", "Opponents", "Score"})
		for _, r := range results {
			tw.AppendRow(table.Row{r.MatchID, r.ParticipationID, r.StartedAt, r.UserName, strings.Join(r.Opponents, ", "), fmt.Sprintf("%.2f", r.Score)})
		}
		tw.Render()
		return nil
	})
}
