package ingest

import (
	"context"

	"sapreplay/internal/store"
)

// Store is the subset of store.Store that ingest writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetReplayHashes(ctx context.Context) (map[string]string, error)
	UpsertReplay(ctx context.Context, r store.ReplayInput) error
	RemoveStaleReplays(ctx context.Context, currentSourceFiles []string) (int64, error)
	UpsertParticipations(ctx context.Context, pids []string, source string) (int64, error)
	MarkParticipation(ctx context.Context, update store.ParticipationUpdate) error
	ListParticipations(ctx context.Context, status store.ParticipationStatus) ([]store.Participation, error)
}
