package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

type mockStore struct {
	empty   []store.ReplayRef
	missing []store.Participation
	fail    bool
}

func (m *mockStore) ListReplaysWithoutActions(ctx context.Context) ([]store.ReplayRef, error) {
	if m.fail {
		return nil, errors.New("forced error")
	}
	return m.empty, nil
}

func (m *mockStore) ListMissingReplays(ctx context.Context) ([]store.Participation, error) {
	return m.missing, nil
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"good.json": `{"MatchId":"m-1","CreatedOn":"2024-03-01T10:00:00Z","Mode":0,"Outcome":1,
			"Actions":[{"Type":4,"Turn":1,"CreatedOn":"2024-03-01T10:00:00Z"},{"Type":11,"Turn":1,"CreatedOn":"2024-03-01T10:00:05Z"}]}`,
		"bad-time.json": `{"MatchId":"m-2","CreatedOn":"2024-03-01T10:00:00Z","Mode":0,"Outcome":1,
			"Actions":[{"Type":4,"Turn":1,"CreatedOn":"yesterday"},{"Type":11,"Turn":1,"CreatedOn":"2024-03-01T10:00:05Z"}]}`,
		"arena.json":      `{"MatchId":"m-3","CreatedOn":"2024-03-01T10:00:00Z","Mode":1,"Outcome":1,"Actions":[]}`,
		"garbage.json":    `{not json`,
		"list.json":       `[1, 2]`,
		"no-actions.json": `{"MatchId":"m-4"}`,
	}
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}

	report := Files(paths)

	tests := []struct {
		file     string
		code     string
		severity Severity
	}{
		{"bad-time.json", string(replay.CodeMalformedTimestamp), SeverityWarn},
		{"arena.json", string(replay.CodeMissingGenesisModeModel), SeverityWarn},
		{"garbage.json", codeNotJSON, SeverityError},
		{"list.json", codeNotReplay, SeverityError},
		{"no-actions.json", codeMissingActions, SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			issue, ok := findIssue(report.Issues, filepath.Join(dir, tt.file), tt.code)
			if !ok {
				t.Fatalf("expected %s issue for %s, got %+v", tt.code, tt.file, report.Issues)
			}
			if issue.Severity != tt.severity {
				t.Errorf("severity = %s, want %s", issue.Severity, tt.severity)
			}
		})
	}

	for _, issue := range report.Issues {
		if issue.FilePath == filepath.Join(dir, "good.json") {
			t.Errorf("unexpected issue for vs-AI replay: %+v", issue)
		}
	}
	if report.Errors() != 3 {
		t.Errorf("errors = %d, want 3", report.Errors())
	}
}

func TestStore(t *testing.T) {
	db := &mockStore{
		empty:   []store.ReplayRef{{MatchID: "m-1", SourceFile: "replays/a.json"}},
		missing: []store.Participation{{PID: "pid-1", Status: store.StatusProcessed}},
	}

	report, err := Store(context.Background(), db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !hasIssueCode(report.Issues, codeEmptyReplay) {
		t.Fatalf("expected replay without actions issue")
	}
	if !hasIssueCode(report.Issues, codeMissingReplay) {
		t.Fatalf("expected missing replay issue")
	}
	if report.Errors() != 1 {
		t.Errorf("errors = %d, want 1", report.Errors())
	}
}

func TestStore_Errors(t *testing.T) {
	if _, err := Store(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := Store(context.Background(), &mockStore{fail: true}); err == nil {
		t.Fatal("expected error from store")
	}
}

func findIssue(issues []Issue, path, code string) (Issue, bool) {
	for _, issue := range issues {
		if issue.FilePath == path && issue.Code == code {
			return issue, true
		}
	}
	return Issue{}, false
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
