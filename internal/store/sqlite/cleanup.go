package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) RemoveStaleReplays(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(currentSourceFiles))
	args := make([]any, len(currentSourceFiles))
	for i, f := range currentSourceFiles {
		placeholders[i] = "?"
		args[i] = f
	}
	stale := fmt.Sprintf("SELECT id FROM replays WHERE source_file NOT IN (%s)", strings.Join(placeholders, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"replay_opponents", "actions", "turn_intervals"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE replay_id IN (%s)", table, stale)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("removing stale %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM replays WHERE id IN (%s)", stale), args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale replays: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing stale replay removal: %w", err)
	}
	return affected, nil
}

func (c *Client) GetReplayHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT source_file, source_hash FROM replays")
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
