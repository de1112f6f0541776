package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	driverSQLite = "sqlite"
	driverLibSQL = "libsql"
)

type target struct {
	driver string
	dsn    string
}

// parseDSN accepts sqlite://<path> for local files and libsql://<host> for
// Turso databases.
func parseDSN(dsn string) (target, error) {
	if strings.HasPrefix(dsn, "libsql://") {
		if strings.TrimPrefix(dsn, "libsql://") == "" {
			return target{}, fmt.Errorf("libsql DSN is missing a host")
		}
		return target{driver: driverLibSQL, dsn: dsn}, nil
	}

	if !strings.HasPrefix(dsn, "sqlite://") {
		return target{}, fmt.Errorf("invalid sqlite DSN scheme, expected sqlite:// or libsql://")
	}

	path, err := parseFilePath(strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return target{}, err
	}
	return target{driver: driverSQLite, dsn: path}, nil
}

func parseFilePath(rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN is missing a path")
	}

	if rest == ":memory:" {
		return ":memory:", nil
	}

	if strings.HasPrefix(rest, "/") {
		return rest, nil
	}

	if strings.HasPrefix(rest, "./") {
		return rest, nil
	}

	if strings.Contains(rest, "?") {
		parts := strings.SplitN(rest, "?", 2)
		path := parts[0]
		query := parts[1]

		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return "", fmt.Errorf("unescaping path: %w", err)
		}
		path = unescaped

		if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
			path = "./" + path
		}
		return path + "?" + query, nil
	}

	unescaped, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	rest = unescaped

	if !filepath.IsAbs(rest) {
		rest = "./" + rest
	}

	return rest, nil
}

func withAuthToken(dsn, token string) string {
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "authToken=" + url.QueryEscape(token)
}
