package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sapreplay/internal/parser"
	"sapreplay/internal/replay"
)

func inspectCmd() *cobra.Command {
	var tallyKind string
	var showTimeline bool
	cmd := &cobra.Command{
		Use:   "inspect <replay-file>",
		Short: "Decode a replay file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tally *replay.Kind
			if tallyKind != "" {
				kind, err := replay.ParseKind(tallyKind)
				if err != nil {
					return err
				}
				tally = &kind
				showTimeline = true
			}
			return runInspect(args[0], showTimeline, tally)
		},
	}
	cmd.Flags().StringVar(&tallyKind, "tally", "", "Add a running per-turn count of this action kind to the timeline")
	cmd.Flags().BoolVar(&showTimeline, "timeline", false, "Print the action timeline")
	return cmd
}

func runInspect(path string, showTimeline bool, tally *replay.Kind) error {
	doc, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	actions, report, err := replay.Normalize(doc, replay.WithLogger(log.Logger.With().Str("file", path).Logger()))
	if err != nil {
		return fmt.Errorf("normalizing %s: %w", path, err)
	}
	summary, summaryReport := replay.Summarize(doc)
	turns, turnReport := replay.TurnDurations(actions)
	report.Merge(summaryReport)
	report.Merge(turnReport)

	renderSummary(os.Stdout, summary)
	if len(turns) > 0 {
		fmt.Fprintln(os.Stdout)
		renderTurns(os.Stdout, turns)
	}
	if showTimeline {
		fmt.Fprintln(os.Stdout)
		renderTimeline(os.Stdout, actions, tally)
	}

	if !report.Empty() {
		fmt.Fprintf(os.Stdout, "\nIssues (%d):\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Fprintf(os.Stdout, "  - %v\n", issue)
		}
	}
	return nil
}
