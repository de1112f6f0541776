package postgres

import (
	"context"
	"fmt"
)

const ddl = `
CREATE TABLE IF NOT EXISTS replays (
    id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    match_id         TEXT NOT NULL,
    participation_id TEXT NOT NULL DEFAULT '',
    source_file      TEXT NOT NULL,
    source_hash      TEXT NOT NULL,
    run_id           TEXT NOT NULL DEFAULT '',
    started_at       TEXT NOT NULL DEFAULT '',
    ended_at         TEXT,
    duration_seconds DOUBLE PRECISION,
    version          INTEGER,
    turns            INTEGER NOT NULL DEFAULT 0,
    outcome          INTEGER NOT NULL,
    game_mode        INTEGER NOT NULL,
    versus           BOOLEAN NOT NULL DEFAULT FALSE,
    ranked           BOOLEAN,
    user_id          TEXT NOT NULL DEFAULT '',
    user_name        TEXT NOT NULL DEFAULT '',
    opponent_names   TEXT NOT NULL DEFAULT '',
    summary          JSONB NOT NULL DEFAULT '{}',
    issue_count      INTEGER NOT NULL DEFAULT 0,
    last_ingested    TIMESTAMPTZ DEFAULT now(),
    search_vector    TSVECTOR GENERATED ALWAYS AS (
        to_tsvector('simple', user_name || ' ' || opponent_names)
    ) STORED,
    CONSTRAINT uq_replay_source UNIQUE (source_file)
);

CREATE TABLE IF NOT EXISTS replay_opponents (
    replay_id        BIGINT NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
    position         INTEGER NOT NULL,
    user_id          TEXT NOT NULL DEFAULT '',
    display_name     TEXT NOT NULL DEFAULT '',
    rank             INTEGER,
    pack             TEXT,
    participation_id TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (replay_id, position)
);

CREATE TABLE IF NOT EXISTS actions (
    replay_id BIGINT NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
    idx       INTEGER NOT NULL,
    kind      TEXT NOT NULL,
    turn      INTEGER NOT NULL,
    lives     INTEGER,
    data      JSONB NOT NULL,
    PRIMARY KEY (replay_id, idx)
);

CREATE TABLE IF NOT EXISTS turn_intervals (
    replay_id       BIGINT NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
    turn            INTEGER NOT NULL,
    started_at      TIMESTAMPTZ NOT NULL,
    ended_at        TIMESTAMPTZ NOT NULL,
    elapsed_seconds DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (replay_id, turn)
);

CREATE TABLE IF NOT EXISTS participations (
    pid          TEXT PRIMARY KEY,
    status       TEXT NOT NULL DEFAULT 'pending',
    version      INTEGER,
    game_date    TEXT NOT NULL DEFAULT '',
    processed_at TIMESTAMPTZ,
    source       TEXT NOT NULL DEFAULT '',
    last_error   TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_replays_search ON replays USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_replays_match ON replays (match_id);
CREATE INDEX IF NOT EXISTS idx_replays_pid ON replays (participation_id);
CREATE INDEX IF NOT EXISTS idx_replays_started ON replays (started_at);
CREATE INDEX IF NOT EXISTS idx_opponents_pid ON replay_opponents (participation_id);
CREATE INDEX IF NOT EXISTS idx_actions_kind ON actions (kind);
CREATE INDEX IF NOT EXISTS idx_participations_status ON participations (status);
`

// EnsureSchema runs the whole DDL in one call, which PostgreSQL executes as a
// single implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
