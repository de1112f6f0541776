package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sapreplay/internal/pids"
	"sapreplay/internal/store"
)

func pidsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pids",
		Short: "Manage the participation id ledger",
	}
	cmd.AddCommand(pidsImportCmd())
	cmd.AddCommand(pidsListCmd())
	cmd.AddCommand(pidsExtractCmd())
	return cmd
}

func pidsImportCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Queue participation ids from a list or chat export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPidsImport(args[0], source)
		},
	}
	cmd.Flags().StringVar(&source, "source", "import", "Source label stored with new ids")
	return cmd
}

func pidsListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known participation ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := store.ParseParticipationStatus(strings.ToLower(status))
			if err != nil {
				return err
			}
			return runPidsList(parsed)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, processed, or failed")
	return cmd
}

func pidsExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the participation ids found in a chat export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := readIDs(args[0])
			if err != nil {
				return err
			}
			valid, invalid := pids.Normalize(ids)
			for _, id := range valid {
				fmt.Fprintln(os.Stdout, id)
			}
			if len(invalid) > 0 {
				fmt.Fprintf(os.Stderr, "skipped %d invalid ids\n", len(invalid))
			}
			return nil
		},
	}
	return cmd
}

// readIDs reads ids from a file holding either chat messages with
// {"Pid":...,"T":...} snippets or a plain id list.
func readIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)
	if ids := pids.FromMessage(text); len(ids) > 0 {
		return ids, nil
	}
	var ids []string
	for _, line := range strings.Split(text, "\n") {
		ids = append(ids, pids.ParseList(line)...)
	}
	return ids, nil
}

func runPidsImport(path, source string) error {
	ids, err := readIDs(path)
	if err != nil {
		return err
	}
	valid, invalid := pids.Normalize(ids)

	return withDB(func(ctx context.Context, db store.Store) error {
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		inserted, err := db.UpsertParticipations(ctx, valid, source)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Read %d ids: %d new, %d already known, %d invalid.\n",
			len(ids), inserted, int64(len(valid))-inserted, len(invalid))
		for _, id := range invalid {
			fmt.Fprintf(os.Stdout, "  - invalid: %s\n", id)
		}
		return nil
	})
}

func runPidsList(status store.ParticipationStatus) error {
	return withDB(func(ctx context.Context, db store.Store) error {
		items, err := db.ListParticipations(ctx, status)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(os.Stdout, "No participations found.")
			return nil
		}
		renderParticipations(os.Stdout, items)
		return nil
	})
}
