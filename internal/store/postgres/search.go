package postgres

import (
	"context"
	"fmt"
	"strings"

	"sapreplay/internal/store"
)

// Search matches player names (the replay owner and opponents) with
// websearch_to_tsquery syntax.
func (c *Client) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT match_id, participation_id, user_name, opponent_names, started_at,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score
FROM replays
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
ORDER BY score DESC, started_at DESC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("searching replays: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var opponents string
		var score float32
		err := rows.Scan(&r.MatchID, &r.ParticipationID, &r.UserName, &opponents, &r.StartedAt, &score)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		r.Opponents = []string{}
		if opponents != "" {
			r.Opponents = strings.Split(opponents, "\n")
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
