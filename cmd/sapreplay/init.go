package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sapreplay/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new sapreplay project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(config.DefaultPath, projectName, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://./sapreplay.db", "Database DSN (sqlite://, libsql://, or postgres://)")
	return cmd
}

func runInit(configPath, projectName, dsn string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ndatabase:\n  dsn: %s\n\nreplays:\n  paths:\n    - ./replays/\n\nexclude:\n  - ./replays/archive/\n\ningest:\n  workers: %d\n  discover_opponents: true\n", projectName, dsn, config.DefaultWorkers)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	fmt.Fprintf(os.Stdout, "Created %s\n", configPath)
	return nil
}
