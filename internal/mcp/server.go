package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

// Querier is the read side of store.Store exposed as tools.
type Querier interface {
	GetSummary(ctx context.Context, id string) (*replay.Summary, error)
	ListSummaries(ctx context.Context, filter store.SummaryFilter) ([]replay.Summary, error)
	GetActions(ctx context.Context, id string) ([]replay.Action, error)
	GetTurnIntervals(ctx context.Context, id string) ([]replay.TurnInterval, error)
	Search(ctx context.Context, query string) ([]store.SearchResult, error)
	ListParticipations(ctx context.Context, status store.ParticipationStatus) ([]store.Participation, error)
}

type Server struct {
	db  Querier
	mcp *sdk.Server
}

func NewServer(db Querier, version string) *Server {
	s := &Server{
		db: db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "sapreplay",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
