package store

import (
	"fmt"

	"sapreplay/internal/replay"
)

// ReplayInput is everything ingest derives from one replay file.
type ReplayInput struct {
	SourceFile string
	SourceHash string
	RunID      string
	Summary    replay.Summary
	Actions    []replay.Action
	Turns      []replay.TurnInterval
	IssueCount int
}

type ReplayRef struct {
	MatchID         string
	ParticipationID string
	SourceFile      string
}

type SummaryFilter struct {
	UserName     string
	OpponentName string
	Outcome      *replay.Outcome
	Mode         *replay.Mode
	RankedOnly   bool
	MinTurns     int
	Limit        int
}

const DefaultListLimit = 100

func (f SummaryFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

type SearchResult struct {
	MatchID         string
	ParticipationID string
	UserName        string
	Opponents       []string
	StartedAt       string
	Score           float64
}

type ParticipationStatus string

const (
	StatusPending   ParticipationStatus = "pending"
	StatusProcessed ParticipationStatus = "processed"
	StatusFailed    ParticipationStatus = "failed"
)

func ParseParticipationStatus(s string) (ParticipationStatus, error) {
	switch ParticipationStatus(s) {
	case "":
		return "", nil
	case StatusPending, StatusProcessed, StatusFailed:
		return ParticipationStatus(s), nil
	default:
		return "", fmt.Errorf("unknown participation status %q", s)
	}
}

type Participation struct {
	PID         string
	Status      ParticipationStatus
	Version     *int
	GameDate    string
	ProcessedAt string
	Source      string
	LastError   string
}

type ParticipationUpdate struct {
	PID      string
	Status   ParticipationStatus
	Version  *int
	GameDate string
	Error    string
}
