package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

type ListReplaysInput struct {
	User       string `json:"user,omitempty" jsonschema:"substring of the replay owner's name"`
	Opponent   string `json:"opponent,omitempty" jsonschema:"substring of an opponent's name"`
	Outcome    string `json:"outcome,omitempty" jsonschema:"win, loss, draw, or abandoned"`
	Mode       string `json:"mode,omitempty" jsonschema:"vs-ai or arena"`
	RankedOnly bool   `json:"ranked_only,omitempty" jsonschema:"only ranked matches"`
	MinTurns   int    `json:"min_turns,omitempty" jsonschema:"minimum number of turns"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of replays, default 100"`
}

type ReplayIDInput struct {
	ID string `json:"id" jsonschema:"match id or participation id"`
}

type GetActionTallyInput struct {
	ID   string `json:"id" jsonschema:"match id or participation id"`
	Kind string `json:"kind" jsonschema:"action kind to count, e.g. roll or buy-food"`
}

type ListParticipationsInput struct {
	Status string `json:"status,omitempty" jsonschema:"pending, processed, or failed"`
}

type SearchReplaysInput struct {
	Query string `json:"query" jsonschema:"player names; supports quotes, OR, -exclusion and trailing *"`
}

type ReplaySummaryOutput struct {
	MatchID         string   `json:"match_id"`
	ParticipationID string   `json:"participation_id"`
	StartedAt       string   `json:"started_at"`
	DurationSeconds float64  `json:"duration_seconds"`
	Turns           int      `json:"turns"`
	Outcome         string   `json:"outcome"`
	Mode            string   `json:"mode"`
	Ranked          bool     `json:"ranked"`
	Version         int      `json:"version"`
	UserName        string   `json:"user_name"`
	UserPack        string   `json:"user_pack"`
	UserRank        int      `json:"user_rank"`
	MaxLives        int      `json:"max_lives"`
	Opponents       []string `json:"opponents"`
}

type ListReplaysOutput struct {
	Replays []ReplaySummaryOutput `json:"replays"`
}

type TimelineEntryOutput struct {
	Index               int    `json:"index"`
	Kind                string `json:"kind"`
	Turn                int    `json:"turn"`
	Time                string `json:"time"`
	Lives               int    `json:"lives"`
	HasLives            bool   `json:"has_lives"`
	PreviousTurnOutcome string `json:"previous_turn_outcome,omitempty"`
	Amount              int    `json:"amount,omitempty"`
}

type TimelineOutput struct {
	Total      int                   `json:"total"`
	MaxTurn    int                   `json:"max_turn"`
	KindCounts map[string]int        `json:"kind_counts"`
	Entries    []TimelineEntryOutput `json:"entries"`
}

type TurnDurationOutput struct {
	Turn           int     `json:"turn"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type TurnDurationsOutput struct {
	Turns []TurnDurationOutput `json:"turns"`
}

type ActionTallyOutput struct {
	Kind   string `json:"kind"`
	Counts []int  `json:"counts"`
}

type ParticipationOutput struct {
	PID         string `json:"pid"`
	Status      string `json:"status"`
	Version     int    `json:"version,omitempty"`
	GameDate    string `json:"game_date,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`
	Source      string `json:"source,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

type ListParticipationsOutput struct {
	Participations []ParticipationOutput `json:"participations"`
}

type SearchResultOutput struct {
	MatchID         string   `json:"match_id"`
	ParticipationID string   `json:"participation_id"`
	UserName        string   `json:"user_name"`
	Opponents       []string `json:"opponents"`
	StartedAt       string   `json:"started_at"`
	Score           float64  `json:"score"`
}

type SearchReplaysOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_replays",
		Description: "List match summaries, newest first, with optional filters",
	}, s.handleListReplays)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_replay_summary",
		Description: "Retrieve the summary of one match",
	}, s.handleGetReplaySummary)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_timeline",
		Description: "Return the normalized action timeline of a match with lives carried forward",
	}, s.handleGetTimeline)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_turn_durations",
		Description: "Return the wall-clock duration of every shop turn",
	}, s.handleGetTurnDurations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_action_tally",
		Description: "Count actions of one kind per turn, running within each turn",
	}, s.handleGetActionTally)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_participations",
		Description: "List known participation ids and their processing status",
	}, s.handleListParticipations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_replays",
		Description: "Search matches by player and opponent names",
	}, s.handleSearchReplays)
}

func (s *Server) handleListReplays(ctx context.Context, req *sdk.CallToolRequest, input ListReplaysInput) (*sdk.CallToolResult, ListReplaysOutput, error) {
	filter := store.SummaryFilter{
		UserName:     input.User,
		OpponentName: input.Opponent,
		RankedOnly:   input.RankedOnly,
		MinTurns:     input.MinTurns,
		Limit:        input.Limit,
	}
	if input.Outcome != "" {
		outcome, ok := replay.ParseOutcome(input.Outcome)
		if !ok {
			return nil, ListReplaysOutput{}, fmt.Errorf("unknown outcome %q", input.Outcome)
		}
		filter.Outcome = &outcome
	}
	if input.Mode != "" {
		mode, ok := replay.ParseMode(input.Mode)
		if !ok {
			return nil, ListReplaysOutput{}, fmt.Errorf("unknown mode %q", input.Mode)
		}
		filter.Mode = &mode
	}

	summaries, err := s.db.ListSummaries(ctx, filter)
	if err != nil {
		return nil, ListReplaysOutput{}, err
	}

	output := make([]ReplaySummaryOutput, 0, len(summaries))
	for _, summary := range summaries {
		output = append(output, summaryOutput(summary))
	}
	return nil, ListReplaysOutput{Replays: output}, nil
}

func (s *Server) handleGetReplaySummary(ctx context.Context, req *sdk.CallToolRequest, input ReplayIDInput) (*sdk.CallToolResult, ReplaySummaryOutput, error) {
	if input.ID == "" {
		return nil, ReplaySummaryOutput{}, fmt.Errorf("id is required")
	}
	summary, err := s.db.GetSummary(ctx, input.ID)
	if err != nil {
		return nil, ReplaySummaryOutput{}, err
	}
	if summary == nil {
		return nil, ReplaySummaryOutput{}, fmt.Errorf("replay not found")
	}
	return nil, summaryOutput(*summary), nil
}

func (s *Server) handleGetTimeline(ctx context.Context, req *sdk.CallToolRequest, input ReplayIDInput) (*sdk.CallToolResult, TimelineOutput, error) {
	actions, err := s.actions(ctx, input.ID)
	if err != nil {
		return nil, TimelineOutput{}, err
	}

	stats := replay.Stats(actions)
	out := TimelineOutput{
		Total:      stats.Total,
		MaxTurn:    stats.MaxTurn,
		KindCounts: make(map[string]int, len(stats.Counts)),
		Entries:    make([]TimelineEntryOutput, 0, len(actions)),
	}
	for kind, n := range stats.Counts {
		out.KindCounts[kind.String()] = n
	}
	for _, a := range actions {
		entry := TimelineEntryOutput{
			Index: a.Index,
			Kind:  a.Kind.String(),
			Turn:  a.Turn,
			Time:  a.Time,
		}
		if a.Lives != nil {
			entry.Lives = *a.Lives
			entry.HasLives = true
		}
		if a.PreviousTurnOutcome != nil {
			entry.PreviousTurnOutcome = a.PreviousTurnOutcome.String()
		}
		if a.Amount != nil {
			entry.Amount = *a.Amount
		}
		out.Entries = append(out.Entries, entry)
	}
	return nil, out, nil
}

func (s *Server) handleGetTurnDurations(ctx context.Context, req *sdk.CallToolRequest, input ReplayIDInput) (*sdk.CallToolResult, TurnDurationsOutput, error) {
	if input.ID == "" {
		return nil, TurnDurationsOutput{}, fmt.Errorf("id is required")
	}
	intervals, err := s.db.GetTurnIntervals(ctx, input.ID)
	if err != nil {
		return nil, TurnDurationsOutput{}, err
	}

	output := make([]TurnDurationOutput, 0, len(intervals))
	for _, iv := range intervals {
		output = append(output, TurnDurationOutput{
			Turn:           iv.Turn,
			Start:          iv.Start.UTC().Format(time.RFC3339Nano),
			End:            iv.End.UTC().Format(time.RFC3339Nano),
			ElapsedSeconds: iv.ElapsedSeconds,
		})
	}
	return nil, TurnDurationsOutput{Turns: output}, nil
}

func (s *Server) handleGetActionTally(ctx context.Context, req *sdk.CallToolRequest, input GetActionTallyInput) (*sdk.CallToolResult, ActionTallyOutput, error) {
	kind, err := replay.ParseKind(input.Kind)
	if err != nil {
		return nil, ActionTallyOutput{}, err
	}
	actions, err := s.actions(ctx, input.ID)
	if err != nil {
		return nil, ActionTallyOutput{}, err
	}
	return nil, ActionTallyOutput{Kind: kind.String(), Counts: replay.Tally(actions, kind)}, nil
}

func (s *Server) handleListParticipations(ctx context.Context, req *sdk.CallToolRequest, input ListParticipationsInput) (*sdk.CallToolResult, ListParticipationsOutput, error) {
	status, err := store.ParseParticipationStatus(strings.ToLower(input.Status))
	if err != nil {
		return nil, ListParticipationsOutput{}, err
	}
	items, err := s.db.ListParticipations(ctx, status)
	if err != nil {
		return nil, ListParticipationsOutput{}, err
	}

	output := make([]ParticipationOutput, 0, len(items))
	for _, p := range items {
		out := ParticipationOutput{
			PID:         p.PID,
			Status:      string(p.Status),
			GameDate:    p.GameDate,
			ProcessedAt: p.ProcessedAt,
			Source:      p.Source,
			LastError:   p.LastError,
		}
		if p.Version != nil {
			out.Version = *p.Version
		}
		output = append(output, out)
	}
	return nil, ListParticipationsOutput{Participations: output}, nil
}

func (s *Server) handleSearchReplays(ctx context.Context, req *sdk.CallToolRequest, input SearchReplaysInput) (*sdk.CallToolResult, SearchReplaysOutput, error) {
	if input.Query == "" {
		return nil, SearchReplaysOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.db.Search(ctx, input.Query)
	if err != nil {
		return nil, SearchReplaysOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, SearchResultOutput{
			MatchID:         r.MatchID,
			ParticipationID: r.ParticipationID,
			UserName:        r.UserName,
			Opponents:       append([]string{}, r.Opponents...),
			StartedAt:       r.StartedAt,
			Score:           r.Score,
		})
	}
	return nil, SearchReplaysOutput{Results: output}, nil
}

func (s *Server) actions(ctx context.Context, id string) ([]replay.Action, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	summary, err := s.db.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("replay not found")
	}
	return s.db.GetActions(ctx, id)
}

func summaryOutput(s replay.Summary) ReplaySummaryOutput {
	out := ReplaySummaryOutput{
		MatchID:         s.MatchID,
		ParticipationID: s.ParticipationID,
		StartedAt:       s.StartedAt,
		Turns:           s.Turns,
		Outcome:         s.Outcome.String(),
		Mode:            s.GameMode.String(),
		UserName:        s.UserName,
		Opponents:       append([]string{}, s.OpponentNames...),
	}
	if s.DurationSeconds != nil {
		out.DurationSeconds = *s.DurationSeconds
	}
	if s.Ranked != nil {
		out.Ranked = *s.Ranked
	}
	if s.Version != nil {
		out.Version = *s.Version
	}
	if s.UserPack != nil {
		out.UserPack = *s.UserPack
	}
	if s.UserRank != nil {
		out.UserRank = *s.UserRank
	}
	if s.MaxLives != nil {
		out.MaxLives = *s.MaxLives
	}
	return out
}
