package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "sapreplay.yaml"
	DefaultWorkers = 4
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Replays  ReplaysConfig  `yaml:"replays"`
	Exclude  []string       `yaml:"exclude"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

type DatabaseConfig struct {
	DSN       string `yaml:"dsn"`
	AuthToken string `yaml:"auth_token"`
}

type ReplaysConfig struct {
	Paths []string `yaml:"paths"`
}

type IngestConfig struct {
	Workers           int  `yaml:"workers"`
	DiscoverOpponents bool `yaml:"discover_opponents"`
}

// EnvConfig holds the environment overrides for a project config.
type EnvConfig struct {
	DatabaseDSN       string `env:"SAPREPLAY_DATABASE_DSN"`
	DatabaseAuthToken string `env:"SAPREPLAY_DATABASE_AUTH_TOKEN"`
	IngestWorkers     int    `env:"SAPREPLAY_INGEST_WORKERS" envDefault:"0"`
}

func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	overrides, err := LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.applyEnv(overrides)

	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = DefaultWorkers
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func (cfg *ProjectConfig) applyEnv(overrides EnvConfig) {
	if dsn := strings.TrimSpace(overrides.DatabaseDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if token := strings.TrimSpace(overrides.DatabaseAuthToken); token != "" {
		cfg.Database.AuthToken = token
	}
	if overrides.IngestWorkers > 0 {
		cfg.Ingest.Workers = overrides.IngestWorkers
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if len(cfg.Replays.Paths) == 0 {
		return fmt.Errorf("at least one replay path is required")
	}
	for i, path := range cfg.Replays.Paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("replay path %d is empty", i)
		}
	}
	if cfg.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be positive, got %d", cfg.Ingest.Workers)
	}

	return nil
}
