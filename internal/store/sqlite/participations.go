package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"sapreplay/internal/store"
)

func (c *Client) UpsertParticipations(ctx context.Context, pids []string, source string) (int64, error) {
	if len(pids) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for _, pid := range pids {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO participations (pid, status, source) VALUES (?, ?, ?) ON CONFLICT (pid) DO NOTHING",
			pid, string(store.StatusPending), source,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting participation %s: %w", pid, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("getting rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing participations: %w", err)
	}
	return inserted, nil
}

func (c *Client) MarkParticipation(ctx context.Context, u store.ParticipationUpdate) error {
	query := `
	INSERT INTO participations (pid, status, version, game_date, processed_at, last_error)
	VALUES (?, ?, ?, ?, datetime('now'), ?)
	ON CONFLICT (pid) DO UPDATE SET
		status = excluded.status,
		version = COALESCE(excluded.version, participations.version),
		game_date = CASE WHEN excluded.game_date <> '' THEN excluded.game_date ELSE participations.game_date END,
		processed_at = excluded.processed_at,
		last_error = excluded.last_error
	`
	_, err := c.db.ExecContext(ctx, query, u.PID, string(u.Status), u.Version, u.GameDate, u.Error)
	if err != nil {
		return fmt.Errorf("marking participation %s: %w", u.PID, err)
	}
	return nil
}

func (c *Client) ListParticipations(ctx context.Context, status store.ParticipationStatus) ([]store.Participation, error) {
	query := `
	SELECT pid, status, version, game_date, processed_at, source, last_error
	FROM participations
	WHERE (? = '' OR status = ?)
	ORDER BY pid
	`
	return c.queryParticipations(ctx, query, string(status), string(status))
}

func (c *Client) ListMissingReplays(ctx context.Context) ([]store.Participation, error) {
	query := `
	SELECT p.pid, p.status, p.version, p.game_date, p.processed_at, p.source, p.last_error
	FROM participations p
	WHERE p.status = ?
	  AND NOT EXISTS (SELECT 1 FROM replays r WHERE r.participation_id = p.pid)
	ORDER BY p.pid
	`
	return c.queryParticipations(ctx, query, string(store.StatusProcessed))
}

func (c *Client) queryParticipations(ctx context.Context, query string, args ...any) ([]store.Participation, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participations: %w", err)
	}
	defer rows.Close()

	participations := []store.Participation{}
	for rows.Next() {
		var p store.Participation
		var status string
		var version sql.NullInt64
		var gameDate, processedAt, source, lastError sql.NullString
		if err := rows.Scan(&p.PID, &status, &version, &gameDate, &processedAt, &source, &lastError); err != nil {
			return nil, fmt.Errorf("scanning participation: %w", err)
		}
		p.Status = store.ParticipationStatus(status)
		if version.Valid {
			v := int(version.Int64)
			p.Version = &v
		}
		p.GameDate = gameDate.String
		p.ProcessedAt = processedAt.String
		p.Source = source.String
		p.LastError = lastError.String
		participations = append(participations, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participations: %w", err)
	}

	return participations, nil
}
