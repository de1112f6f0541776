package main

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"sapreplay/internal/config"
	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

func TestBackendFor(t *testing.T) {
	tests := map[string]string{
		"sqlite://./replays.db":          "sqlite",
		"sqlite://:memory:":              "sqlite",
		"libsql://replays.turso.io":      "sqlite",
		"postgres://localhost/replays":   "postgres",
		"postgresql://localhost/replays": "postgres",
		"mysql://localhost/replays":      "",
		"":                               "",
	}
	for dsn, want := range tests {
		if got := backendFor(dsn); got != want {
			t.Errorf("backendFor(%q) = %q, want %q", dsn, got, want)
		}
	}
}

func TestParseParamPairs(t *testing.T) {
	got, err := parseParamPairs([]string{"user=Ada", " limit = 5 ", "", "expr=a=b"})
	if err != nil {
		t.Fatalf("parseParamPairs: %v", err)
	}
	want := map[string]any{"user": "Ada", "limit": "5", "expr": "a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=value"} {
		if _, err := parseParamPairs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestApplyListFlags(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var filter store.SummaryFilter
		if err := applyListFlags(&filter, "loss", "arena"); err != nil {
			t.Fatalf("applyListFlags: %v", err)
		}
		if filter.Outcome == nil || *filter.Outcome != replay.OutcomeLoss {
			t.Errorf("outcome = %v, want loss", filter.Outcome)
		}
		if filter.Mode == nil || *filter.Mode != replay.ModeArena {
			t.Errorf("mode = %v, want arena", filter.Mode)
		}
	})

	t.Run("empty leaves filter unset", func(t *testing.T) {
		var filter store.SummaryFilter
		if err := applyListFlags(&filter, "", ""); err != nil {
			t.Fatalf("applyListFlags: %v", err)
		}
		if filter.Outcome != nil || filter.Mode != nil {
			t.Errorf("expected nil filters, got %+v", filter)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		var filter store.SummaryFilter
		if err := applyListFlags(&filter, "victory", ""); err == nil {
			t.Error("expected error for unknown outcome")
		}
		if err := applyListFlags(&filter, "", "ranked"); err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}

func TestRunInit(t *testing.T) {
	t.Setenv("SAPREPLAY_DATABASE_DSN", "")
	path := filepath.Join(t.TempDir(), config.DefaultPath)

	if err := runInit(path, "ladder", "sqlite://./ladder.db"); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	cfg, err := config.LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if cfg.Project != "ladder" {
		t.Errorf("project = %q, want ladder", cfg.Project)
	}
	if cfg.Database.DSN != "sqlite://./ladder.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Ingest.Workers != config.DefaultWorkers {
		t.Errorf("workers = %d, want %d", cfg.Ingest.Workers, config.DefaultWorkers)
	}

	err = runInit(path, "ladder", "sqlite://./ladder.db")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already exists error, got %v", err)
	}
}

func TestReadIDs(t *testing.T) {
	dir := t.TempDir()

	chat := filepath.Join(dir, "chat.txt")
	chatText := `gg {"Pid":"0B5D8D2E-4F4A-4C55-9C43-5D1B7E2A9F10","T":3} and {"Pid":"bad","T":1}`
	if err := os.WriteFile(chat, []byte(chatText), 0o644); err != nil {
		t.Fatal(err)
	}
	ids, err := readIDs(chat)
	if err != nil {
		t.Fatalf("readIDs: %v", err)
	}
	if want := []string{"0B5D8D2E-4F4A-4C55-9C43-5D1B7E2A9F10", "bad"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("chat ids = %v, want %v", ids, want)
	}

	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte("[\"a\", \"b\"]\nc, d\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ids, err = readIDs(list)
	if err != nil {
		t.Fatalf("readIDs: %v", err)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("list ids = %v, want %v", ids, want)
	}

	if _, err := readIDs(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVersionString(t *testing.T) {
	got := versionString("v1.2.0", "abcdef1234567890")
	want := "sapreplay v1.2.0 (commit abcdef1, " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + ")"
	if got != want {
		t.Errorf("versionString = %q, want %q", got, want)
	}

	dev := versionString("dev", "")
	if !strings.HasPrefix(dev, "sapreplay ") || !strings.Contains(dev, runtime.Version()) {
		t.Errorf("unexpected dev version %q", dev)
	}
}
