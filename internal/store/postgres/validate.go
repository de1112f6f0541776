package postgres

import (
	"context"

	"sapreplay/internal/store"
)

func (c *Client) ListReplaysWithoutActions(ctx context.Context) ([]store.ReplayRef, error) {
	query := `
SELECT r.match_id, r.participation_id, r.source_file FROM replays r
WHERE NOT EXISTS (SELECT 1 FROM actions a WHERE a.replay_id = r.id)
ORDER BY r.source_file
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []store.ReplayRef{}
	for rows.Next() {
		var ref store.ReplayRef
		if err := rows.Scan(&ref.MatchID, &ref.ParticipationID, &ref.SourceFile); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
