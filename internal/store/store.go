package store

import (
	"context"

	"sapreplay/internal/replay"
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertReplay(ctx context.Context, r ReplayInput) error
	RemoveStaleReplays(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetReplayHashes(ctx context.Context) (map[string]string, error)

	GetSummary(ctx context.Context, id string) (*replay.Summary, error)
	ListSummaries(ctx context.Context, filter SummaryFilter) ([]replay.Summary, error)
	GetActions(ctx context.Context, id string) ([]replay.Action, error)
	GetTurnIntervals(ctx context.Context, id string) ([]replay.TurnInterval, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)

	UpsertParticipations(ctx context.Context, pids []string, source string) (int64, error)
	MarkParticipation(ctx context.Context, update ParticipationUpdate) error
	ListParticipations(ctx context.Context, status ParticipationStatus) ([]Participation, error)

	ListReplaysWithoutActions(ctx context.Context) ([]ReplayRef, error)
	ListMissingReplays(ctx context.Context) ([]Participation, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
