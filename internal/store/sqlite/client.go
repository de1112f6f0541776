package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sapreplay/internal/store"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

// Client stores replays in a local SQLite file or a remote libSQL (Turso)
// database; both speak the same SQL dialect.
type Client struct {
	db     *sql.DB
	remote bool
}

func New(ctx context.Context, dsn, authToken string) (*Client, error) {
	target, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}
	if target.driver == driverLibSQL && authToken != "" {
		target.dsn = withAuthToken(target.dsn, authToken)
	}

	db, err := sql.Open(target.driver, target.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", target.driver, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", target.driver, err)
	}

	client := &Client{db: db, remote: target.driver == driverLibSQL}
	if client.remote {
		return client, nil
	}

	// A single connection keeps :memory: databases alive across queries.
	if target.dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return client, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
