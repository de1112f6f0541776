package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func renderSummary(out io.Writer, s replay.Summary) {
	tw := newTable(out, table.Row{"Field", "Value"})
	tw.AppendRows([]table.Row{
		{"Match", s.MatchID},
		{"Participation", s.ParticipationID},
		{"Started", s.StartedAt},
		{"Ended", orDash(s.EndedAt, func(v string) string { return v })},
		{"Duration (s)", orDash(s.DurationSeconds, formatSeconds)},
		{"Version", orDash(s.Version, itoa)},
		{"Turns", s.Turns},
		{"Outcome", s.Outcome},
		{"Mode", s.GameMode},
		{"Ranked", orDash(s.Ranked, strconv.FormatBool)},
		{"Players", orDash(s.PlayerCount, itoa)},
		{"Max lives", orDash(s.MaxLives, itoa)},
		{"User", fmt.Sprintf("%s (%s)", s.UserName, s.UserID)},
		{"Pack", orDash(s.UserPack, func(v string) string { return v })},
		{"Rank", orDash(s.UserRank, itoa)},
	})
	tw.Render()

	if s.OpponentIDs == nil {
		return
	}
	fmt.Fprintln(out)
	ot := newTable(out, table.Row{"#", "Opponent", "User ID", "Rank", "Pack", "Participation"})
	for i := range s.OpponentIDs {
		ot.AppendRow(table.Row{
			i + 1,
			at(s.OpponentNames, i),
			s.OpponentIDs[i],
			orDash(atPtr(s.OpponentRanks, i), itoa),
			orDash(atPtr(s.OpponentPacks, i), func(v string) string { return v }),
			at(s.OpponentParticipationIDs, i),
		})
	}
	ot.Render()
}

// renderTimeline prints one row per action. When tally is non-nil an extra
// column shows the running per-turn count of that kind.
func renderTimeline(out io.Writer, actions []replay.Action, tally *replay.Kind) {
	header := table.Row{"#", "Turn", "Kind", "Time", "Lives", "Last battle"}
	var counts []int
	if tally != nil {
		header = append(header, tally.String())
		counts = replay.Tally(actions, *tally)
	}
	tw := newTable(out, header)
	for i, a := range actions {
		row := table.Row{
			a.Index,
			a.Turn,
			a.Kind,
			a.Time,
			orDash(a.Lives, itoa),
			orDash(a.PreviousTurnOutcome, replay.Outcome.String),
		}
		if counts != nil {
			row = append(row, counts[i])
		}
		tw.AppendRow(row)
	}
	stats := replay.Stats(actions)
	tw.AppendFooter(table.Row{"", stats.MaxTurn, fmt.Sprintf("%d actions", stats.Total), "", orDash(stats.FinalLives, itoa), ""})
	tw.Render()
}

func renderTurns(out io.Writer, intervals []replay.TurnInterval) {
	tw := newTable(out, table.Row{"Turn", "Start", "End", "Seconds"})
	var total float64
	for _, iv := range intervals {
		tw.AppendRow(table.Row{
			iv.Turn,
			iv.Start.UTC().Format(time.RFC3339Nano),
			iv.End.UTC().Format(time.RFC3339Nano),
			formatSeconds(iv.ElapsedSeconds),
		})
		total += iv.ElapsedSeconds
	}
	tw.AppendFooter(table.Row{"", "", "Total", formatSeconds(total)})
	tw.Render()
}

func renderSummaries(out io.Writer, summaries []replay.Summary) {
	tw := newTable(out, table.Row{"Match", "Started", "User", "Opponents", "Mode", "Outcome", "Turns", "Ranked"})
	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.MatchID,
			s.StartedAt,
			s.UserName,
			strings.Join(s.OpponentNames, ", "),
			s.GameMode,
			s.Outcome,
			s.Turns,
			orDash(s.Ranked, strconv.FormatBool),
		})
	}
	tw.Render()
}

func renderParticipations(out io.Writer, items []store.Participation) {
	tw := newTable(out, table.Row{"PID", "Status", "Version", "Game date", "Processed", "Source", "Error"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.PID, p.Status, orDash(p.Version, itoa), p.GameDate, p.ProcessedAt, p.Source, p.LastError})
	}
	tw.Render()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func atPtr[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}
