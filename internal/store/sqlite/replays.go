package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func (c *Client) UpsertReplay(ctx context.Context, r store.ReplayInput) error {
	s := r.Summary
	summaryJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO replays (match_id, participation_id, source_file, source_hash, run_id, started_at, ended_at,
		duration_seconds, version, turns, outcome, game_mode, versus, ranked, user_id, user_name,
		opponent_names, summary, issue_count, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (source_file) DO UPDATE SET
		match_id = excluded.match_id,
		participation_id = excluded.participation_id,
		source_hash = excluded.source_hash,
		run_id = excluded.run_id,
		started_at = excluded.started_at,
		ended_at = excluded.ended_at,
		duration_seconds = excluded.duration_seconds,
		version = excluded.version,
		turns = excluded.turns,
		outcome = excluded.outcome,
		game_mode = excluded.game_mode,
		versus = excluded.versus,
		ranked = excluded.ranked,
		user_id = excluded.user_id,
		user_name = excluded.user_name,
		opponent_names = excluded.opponent_names,
		summary = excluded.summary,
		issue_count = excluded.issue_count,
		last_ingested = datetime('now')
	RETURNING id
	`

	var replayID int64
	err = tx.QueryRowContext(ctx, query,
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
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE replay_id = ?", replayID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i := range s.OpponentIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO replay_opponents (replay_id, position, user_id, display_name, rank, pack, participation_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			replayID, i, s.OpponentIDs[i], at(s.OpponentNames, i), atPtr(s.OpponentRanks, i),
			atPtr(s.OpponentPacks, i), at(s.OpponentParticipationIDs, i),
		)
		if err != nil {
			return fmt.Errorf("inserting opponent: %w", err)
		}
	}

	for _, a := range r.Actions {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshaling action %d: %w", a.Index, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO actions (replay_id, idx, kind, turn, lives, data) VALUES (?, ?, ?, ?, ?, ?)",
			replayID, a.Index, a.Kind.String(), a.Turn, a.Lives, string(data),
		)
		if err != nil {
			return fmt.Errorf("inserting action %d: %w", a.Index, err)
		}
	}

	for _, iv := range r.Turns {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO turn_intervals (replay_id, turn, started_at, ended_at, elapsed_seconds) VALUES (?, ?, ?, ?, ?)",
			replayID, iv.Turn, iv.Start.UTC().Format(time.RFC3339Nano), iv.End.UTC().Format(time.RFC3339Nano), iv.ElapsedSeconds,
		)
		if err != nil {
			return fmt.Errorf("inserting turn %d: %w", iv.Turn, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replay: %w", err)
	}
	return nil
}

// resolveReplay finds the most recently ingested replay whose match id or
// participation id equals id.
func (c *Client) resolveReplay(ctx context.Context, id string) (int64, string, error) {
	var replayID int64
	var summary string
	err := c.db.QueryRowContext(ctx,
		`SELECT id, summary FROM replays
		WHERE match_id = ? OR participation_id = ?
		ORDER BY last_ingested DESC, id DESC
		LIMIT 1`,
		id, id,
	).Scan(&replayID, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("resolving replay %q: %w", id, err)
	}
	return replayID, summary, nil
}

func (c *Client) GetSummary(ctx context.Context, id string) (*replay.Summary, error) {
	replayID, data, err := c.resolveReplay(ctx, id)
	if err != nil || replayID == 0 {
		return nil, err
	}
	var s replay.Summary
	if err := json.Unmarshal([]byte(data), &s); err != nil {
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
	user := strings.ToLower(strings.TrimSpace(filter.UserName))
	opponent := strings.ToLower(strings.TrimSpace(filter.OpponentName))

	query := `
	SELECT r.summary
	FROM replays r
	WHERE (? = '' OR lower(r.user_name) LIKE '%' || ? || '%')
	  AND (? = '' OR EXISTS (
		SELECT 1 FROM replay_opponents o
		WHERE o.replay_id = r.id AND lower(o.display_name) LIKE '%' || ? || '%'))
	  AND (? < 0 OR r.outcome = ?)
	  AND (? < 0 OR r.game_mode = ?)
	  AND (? = 0 OR r.ranked = 1)
	  AND r.turns >= ?
	ORDER BY r.started_at DESC, r.id DESC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query,
		user, user,
		opponent, opponent,
		outcome, outcome,
		mode, mode,
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
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		var s replay.Summary
		if err := json.Unmarshal([]byte(data), &s); err != nil {
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

	rows, err := c.db.QueryContext(ctx, "SELECT data FROM actions WHERE replay_id = ? ORDER BY idx", replayID)
	if err != nil {
		return nil, fmt.Errorf("getting actions: %w", err)
	}
	defer rows.Close()

	actions := []replay.Action{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		var a replay.Action
		if err := json.Unmarshal([]byte(data), &a); err != nil {
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

	rows, err := c.db.QueryContext(ctx,
		"SELECT turn, started_at, ended_at, elapsed_seconds FROM turn_intervals WHERE replay_id = ? ORDER BY turn",
		replayID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting turn intervals: %w", err)
	}
	defer rows.Close()

	intervals := []replay.TurnInterval{}
	for rows.Next() {
		var iv replay.TurnInterval
		var start, end string
		if err := rows.Scan(&iv.Turn, &start, &end, &iv.ElapsedSeconds); err != nil {
			return nil, fmt.Errorf("scanning turn interval: %w", err)
		}
		if iv.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("parsing turn start: %w", err)
		}
		if iv.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("parsing turn end: %w", err)
		}
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
