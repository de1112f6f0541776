package postgres

import (
	"context"
	"fmt"
)

// RemoveStaleReplays deletes replays whose source file is no longer present.
// Child rows go with them through ON DELETE CASCADE.
func (c *Client) RemoveStaleReplays(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	query := `
DELETE FROM replays
WHERE NOT (source_file = ANY($1))
RETURNING id
`

	rows, err := c.pool.Query(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale replays: %w", err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}

	return count, nil
}

func (c *Client) GetReplayHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, "SELECT source_file, source_hash FROM replays")
	if err != nil {
		return nil, fmt.Errorf("query replay hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning replay hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating replay hashes: %w", err)
	}

	return hashes, nil
}
