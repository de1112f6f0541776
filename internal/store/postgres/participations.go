package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sapreplay/internal/store"
)

func (c *Client) UpsertParticipations(ctx context.Context, pids []string, source string) (int64, error) {
	if len(pids) == 0 {
		return 0, nil
	}

	query := `
INSERT INTO participations (pid, status, source)
SELECT p, $2, $3 FROM unnest($1::text[]) AS p
ON CONFLICT (pid) DO NOTHING
`
	tag, err := c.pool.Exec(ctx, query, pids, string(store.StatusPending), source)
	if err != nil {
		return 0, fmt.Errorf("inserting participations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) MarkParticipation(ctx context.Context, u store.ParticipationUpdate) error {
	query := `
INSERT INTO participations (pid, status, version, game_date, processed_at, last_error)
VALUES ($1, $2, $3, $4, now(), $5)
ON CONFLICT (pid) DO UPDATE SET
    status = EXCLUDED.status,
    version = COALESCE(EXCLUDED.version, participations.version),
    game_date = CASE WHEN EXCLUDED.game_date <> '' THEN EXCLUDED.game_date ELSE participations.game_date END,
    processed_at = EXCLUDED.processed_at,
    last_error = EXCLUDED.last_error
`
	_, err := c.pool.Exec(ctx, query, u.PID, string(u.Status), u.Version, u.GameDate, u.Error)
	if err != nil {
		return fmt.Errorf("marking participation %s: %w", u.PID, err)
	}
	return nil
}

const participationColumns = `p.pid, p.status, p.version, p.game_date,
    COALESCE(to_char(p.processed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'), ''),
    p.source, p.last_error`

func (c *Client) ListParticipations(ctx context.Context, status store.ParticipationStatus) ([]store.Participation, error) {
	query := `SELECT ` + participationColumns + `
FROM participations p
WHERE ($1 = '' OR p.status = $1)
ORDER BY p.pid
`
	return c.queryParticipations(ctx, query, string(status))
}

func (c *Client) ListMissingReplays(ctx context.Context) ([]store.Participation, error) {
	query := `SELECT ` + participationColumns + `
FROM participations p
WHERE p.status = $1
  AND NOT EXISTS (SELECT 1 FROM replays r WHERE r.participation_id = p.pid)
ORDER BY p.pid
`
	return c.queryParticipations(ctx, query, string(store.StatusProcessed))
}

func (c *Client) queryParticipations(ctx context.Context, query string, args ...any) ([]store.Participation, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participations: %w", err)
	}

	participations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Participation, error) {
		var p store.Participation
		var status string
		err := row.Scan(&p.PID, &status, &p.Version, &p.GameDate, &p.ProcessedAt, &p.Source, &p.LastError)
		p.Status = store.ParticipationStatus(status)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning participations: %w", err)
	}
	if participations == nil {
		participations = []store.Participation{}
	}
	return participations, nil
}
