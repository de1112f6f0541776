package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sapreplay/internal/ingest"
	"sapreplay/internal/validate"
)

var validateStore bool

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against replay files",
		RunE:  runValidate,
	}
	cmd.Flags().BoolVar(&validateStore, "store", false, "Also check the database against the participation ledger")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := ingest.ReplayFiles(cfg.Replays.Paths, cfg.Exclude)
	if err != nil {
		return fmt.Errorf("walking replay files: %w", err)
	}
	report := validate.Files(files)

	if validateStore {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)

		storeReport, err := validate.Store(ctx, db)
		if err != nil {
			return err
		}
		report.Issues = append(report.Issues, storeReport.Issues...)
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	fmt.Fprintf(os.Stdout, "Checked %d replay files.\n", len(files))
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.MatchID
		if issue.FilePath != "" {
			if location == "" {
				location = issue.FilePath
			} else {
				location = fmt.Sprintf("%s (%s)", location, issue.FilePath)
			}
		}
		if location == "" {
			fmt.Fprintf(out, "  - %s (%s)\n", issue.Message, issue.Code)
			continue
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
