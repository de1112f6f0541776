package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func (c *Client) UpsertReplay(ctx context.Context, r store.ReplayInput) error {
	s := r.Summary
	summaryJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO replays (match_id, participation_id, source_file, source_hash, run_id, started_at, ended_at,
    duration_seconds, version, turns, outcome, game_mode, versus, ranked, user_id, user_name,
    opponent_names, summary, issue_count, last_ingested)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now())
ON CONFLICT (source_file) DO UPDATE SET
    match_id = EXCLUDED.match_id,
    participation_id = EXCLUDED.participation_id,
    source_hash = EXCLUDED.source_hash,
    run_id = EXCLUDED.run_id,
    started_at = EXCLUDED.started_at,
    ended_at = EXCLUDED.ended_at,
    duration_seconds = EXCLUDED.duration_seconds,
    version = EXCLUDED.version,
    turns = EXCLUDED.turns,
    outcome = EXCLUDED.outcome,
    game_mode = EXCLUDED.game_mode,
    versus = EXCLUDED.versus,
    ranked = EXCLUDED.ranked,
    user_id = EXCLUDED.user_id,
    user_name = EXCLUDED.user_name,
    opponent_names = EXCLUDED.opponent_names,
    summary = EXCLUDED.summary,
    issue_count = EXCLUDED.issue_count,
    last_ingested = now()
RETURNING id
`

	var replayID int64
	err = tx.QueryRow(ctx, query,
		s.MatchID,
		s.ParticipationID,
		r.SourceFile,
		r.SourceHash,
		r.RunID,
		s.StartedAt,
		s.EndedAt,
		s.DurationSeconds,
		s.Version,
		s.Turns,
		int(s.Outcome),
		int(s.GameMode),
		s.Versus,
		s.Ranked,
		s.UserID,
		s.UserName,
		strings.Join(s.OpponentNames, "\n"),
		string(summaryJSON),
		r.IssueCount,
	).Scan(&replayID)
	if err != nil {
		return fmt.Errorf("upserting replay: %w", err)
	}

	for _, table := range []string{"replay_opponents", "actions", "turn_intervals"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE replay_id = $1", replayID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for i := range s.OpponentIDs {
		batch.Queue(
			`INSERT INTO replay_opponents (replay_id, position, user_id, display_name, rank, pack, participation_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			replayID, i, s.OpponentIDs[i], at(s.OpponentNames, i), atPtr(s.OpponentRanks, i),
			atPtr(s.OpponentPacks, i), at(s.OpponentParticipationIDs, i),
		)
	}
	for _, a := range r.Actions {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshaling action %d: %w", a.Index, err)
		}
		batch.Queue(
			"INSERT INTO actions (replay_id, idx, kind, turn, lives, data) VALUES ($1, $2, $3, $4, $5, $6)",
			replayID, a.Index, a.Kind.String(), a.Turn, a.Lives, string(data),
		)
	}
	for _, iv := range r.Turns {
		batch.Queue(
			"INSERT INTO turn_intervals (replay_id, turn, started_at, ended_at, elapsed_seconds) VALUES ($1, $2, $3, $4, $5)",
			replayID, iv.Turn, iv.Start, iv.End, iv.ElapsedSeconds,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting replay rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing replay: %w", err)
	}
	return nil
}

// resolveReplay finds the most recently ingested replay whose match id or
// participation id equals id.
func (c *Client) resolveReplay(ctx context.Context, id string) (int64, []byte, error) {
	var replayID int64
	var summary []byte
	err := c.pool.QueryRow(ctx,
		`SELECT id, summary FROM replays
WHERE match_id = $1 OR participation_id = $1
ORDER BY last_ingested DESC, id DESC
LIMIT 1`,
		id,
	).Scan(&replayID, &summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("resolving replay %q: %w", id, err)
	}
	return replayID, summary, nil
}

func (c *Client) GetSummary(ctx context.Context, id string) (*replay.Summary, error) {
	replayID, data, err := c.resolveReplay(ctx, id)
	if err != nil || replayID == 0 {
		return nil, err
	}
	var s replay.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &s, nil
}

func (c *Client) ListSummaries(ctx context.Context, filter store.SummaryFilter) ([]replay.Summary, error) {
	outcome, mode := -1, -1
	if filter.Outcome != nil {
		outcome = int(*filter.Outcome)
	}
	if filter.Mode != nil {
		mode = int(*filter.Mode)
	}

	query := `
SELECT r.summary
FROM replays r
WHERE ($1 = '' OR r.user_name ILIKE '%' || $1 || '%')
  AND ($2 = '' OR EXISTS (
    SELECT 1 FROM replay_opponents o
    WHERE o.replay_id = r.id AND o.display_name ILIKE '%' || $2 || '%'))
  AND ($3::int < 0 OR r.outcome = $3)
  AND ($4::int < 0 OR r.game_mode = $4)
  AND (NOT $5::bool OR r.ranked IS TRUE)
  AND r.turns >= $6
ORDER BY r.started_at DESC, r.id DESC
LIMIT $7
`

	rows, err := c.pool.Query(ctx, query,
		strings.TrimSpace(filter.UserName),
		strings.TrimSpace(filter.OpponentName),
		outcome,
		mode,
		filter.RankedOnly,
		filter.MinTurns,
		filter.EffectiveLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	summaries := []replay.Summary{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		var s replay.Summary
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("unmarshaling summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}

	return summaries, nil
}

func (c *Client) GetActions(ctx context.Context, id string) ([]replay.Action, error) {
	replayID, _, err := c.resolveReplay(ctx, id)
	if err != nil || replayID == 0 {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, "SELECT data FROM actions WHERE replay_id = $1 ORDER BY idx", replayID)
	if err != nil {
		return nil, fmt.Errorf("getting actions: %w", err)
	}
	defer rows.Close()

	actions := []replay.Action{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		var a replay.Action
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("unmarshaling action: %w", err)
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}

	return actions, nil
}

func (c *Client) GetTurnIntervals(ctx context.Context, id string) ([]replay.TurnInterval, error) {
	replayID, _, err := c.resolveReplay(ctx, id)
	if err != nil || replayID == 0 {
		return nil, err
	}

	rows, err := c.pool.Query(ctx,
		"SELECT turn, started_at, ended_at, elapsed_seconds FROM turn_intervals WHERE replay_id = $1 ORDER BY turn",
		replayID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting turn intervals: %w", err)
	}
	defer rows.Close()

	intervals := []replay.TurnInterval{}
	for rows.Next() {
		var iv replay.TurnInterval
		if err := rows.Scan(&iv.Turn, &iv.Start, &iv.End, &iv.ElapsedSeconds); err != nil {
			return nil, fmt.Errorf("scanning turn interval: %w", err)
		}
		iv.Start = iv.Start.UTC()
		iv.End = iv.End.UTC()
		intervals = append(intervals, iv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turn intervals: %w", err)
	}

	return intervals, nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func atPtr[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}
