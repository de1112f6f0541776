package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sapreplay/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise the database with replay files",
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	result, err := ingest.Run(ctx, cfg, db, ingest.Options{Full: ingestFull, Logger: &log.Logger})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Run:                  %s\n", result.RunID)
	fmt.Fprintf(os.Stdout, "  Replays upserted:     %d\n", result.ReplaysUpserted)
	fmt.Fprintf(os.Stdout, "  Replays removed:      %d\n", result.ReplaysRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:        %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Files failed:         %d\n", result.FilesFailed)
	fmt.Fprintf(os.Stdout, "  Decoding issues:      %d\n", result.Issues)
	if cfg.Ingest.DiscoverOpponents {
		fmt.Fprintf(os.Stdout, "  Opponents discovered: %d\n", result.OpponentsDiscovered)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
