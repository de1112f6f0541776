package main

import (
	"context"
	"fmt"
	"strings"

	"sapreplay/internal/config"
	"sapreplay/internal/store"
	"sapreplay/internal/store/postgres"
	"sapreplay/internal/store/sqlite"
)

func loadConfig() (*config.ProjectConfig, error) {
	return config.LoadProjectConfig(config.DefaultPath)
}

// openDB picks the backend from the DSN scheme.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	switch backendFor(dsn) {
	case "sqlite":
		client, err := sqlite.New(ctx, dsn, cfg.Database.AuthToken)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "postgres":
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported database dsn scheme: expected sqlite://, libsql://, or postgres://")
	}
}

func backendFor(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "libsql://"):
		return "sqlite"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	default:
		return ""
	}
}
