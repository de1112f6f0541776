package main

import (
	"context"

	"github.com/spf13/cobra"

	"sapreplay/internal/store"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored replays from the CLI",
	}
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(querySummaryCmd())
	cmd.AddCommand(queryTimelineCmd())
	cmd.AddCommand(queryTurnsCmd())
	cmd.AddCommand(queryTallyCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(querySearchCmd())
	return cmd
}

// withDB loads the project config, opens the database and runs fn against it.
func withDB(fn func(ctx context.Context, db store.Store) error) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	return fn(ctx, db)
}
