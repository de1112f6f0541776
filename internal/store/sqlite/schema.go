package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS replays (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id         TEXT NOT NULL,
	participation_id TEXT NOT NULL DEFAULT '',
	source_file      TEXT NOT NULL,
	source_hash      TEXT NOT NULL,
	run_id           TEXT NOT NULL DEFAULT '',
	started_at       TEXT DEFAULT '',
	ended_at         TEXT,
	duration_seconds REAL,
	version          INTEGER,
	turns            INTEGER NOT NULL DEFAULT 0,
	outcome          INTEGER NOT NULL,
	game_mode        INTEGER NOT NULL,
	versus           INTEGER NOT NULL DEFAULT 0,
	ranked           INTEGER,
	user_id          TEXT DEFAULT '',
	user_name        TEXT DEFAULT '',
	opponent_names   TEXT DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '{}',
	issue_count      INTEGER NOT NULL DEFAULT 0,
	last_ingested    TEXT DEFAULT (datetime('now')),
	CONSTRAINT uq_replay_source UNIQUE (source_file)
);

CREATE TABLE IF NOT EXISTS replay_opponents (
	replay_id        INTEGER NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	user_id          TEXT DEFAULT '',
	display_name     TEXT DEFAULT '',
	rank             INTEGER,
	pack             TEXT,
	participation_id TEXT DEFAULT '',
	PRIMARY KEY (replay_id, position)
);

CREATE TABLE IF NOT EXISTS actions (
	replay_id INTEGER NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
	idx       INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	turn      INTEGER NOT NULL,
	lives     INTEGER,
	data      TEXT NOT NULL,
	PRIMARY KEY (replay_id, idx)
);

CREATE TABLE IF NOT EXISTS turn_intervals (
	replay_id       INTEGER NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
	turn            INTEGER NOT NULL,
	started_at      TEXT NOT NULL,
	ended_at        TEXT NOT NULL,
	elapsed_seconds REAL NOT NULL,
	PRIMARY KEY (replay_id, turn)
);

CREATE TABLE IF NOT EXISTS participations (
	pid          TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'pending',
	version      INTEGER,
	game_date    TEXT DEFAULT '',
	processed_at TEXT DEFAULT '',
	source       TEXT DEFAULT '',
	last_error   TEXT DEFAULT '',
	created_at   TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_replays_match ON replays (match_id);
CREATE INDEX IF NOT EXISTS idx_replays_pid ON replays (participation_id);
CREATE INDEX IF NOT EXISTS idx_replays_started ON replays (started_at);
CREATE INDEX IF NOT EXISTS idx_opponents_pid ON replay_opponents (participation_id);
CREATE INDEX IF NOT EXISTS idx_actions_kind ON actions (kind);
CREATE INDEX IF NOT EXISTS idx_participations_status ON participations (status);

CREATE VIRTUAL TABLE IF NOT EXISTS replays_fts USING fts5(
	user_name,
	opponent_names,
	content=replays,
	content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS replays_ai AFTER INSERT ON replays BEGIN
	INSERT INTO replays_fts(rowid, user_name, opponent_names)
	VALUES (new.id, new.user_name, new.opponent_names);
END;

CREATE TRIGGER IF NOT EXISTS replays_ad AFTER DELETE ON replays BEGIN
	INSERT INTO replays_fts(replays_fts, rowid, user_name, opponent_names)
	VALUES ('delete', old.id, old.user_name, old.opponent_names);
END;

CREATE TRIGGER IF NOT EXISTS replays_au AFTER UPDATE ON replays BEGIN
	INSERT INTO replays_fts(replays_fts, rowid, user_name, opponent_names)
	VALUES ('delete', old.id, old.user_name, old.opponent_names);
	INSERT INTO replays_fts(rowid, user_name, opponent_names)
	VALUES (new.id, new.user_name, new.opponent_names);
END;
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements splits DDL on statement-ending semicolons, keeping trigger
// bodies (BEGIN ... END;) together.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
