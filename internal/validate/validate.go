package validate

import (
	"context"
	"errors"
	"fmt"

	"sapreplay/internal/parser"
	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeNotJSON        = "not_json"
	codeNotReplay      = "not_replay"
	codeMissingActions = "missing_actions"
	codeUnreadable     = "unreadable_file"
	codeLengthMismatch = "action_count_mismatch"
	codeEmptyReplay    = "replay_without_actions"
	codeMissingReplay  = "missing_replay"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	MatchID  string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// StoreValidator is the read side of store.Store used by consistency checks.
type StoreValidator interface {
	ListReplaysWithoutActions(ctx context.Context) ([]store.ReplayRef, error)
	ListMissingReplays(ctx context.Context) ([]store.Participation, error)
}

// Files decodes every replay file and reports problems without touching a
// database. Recoverable decoding issues are warnings.
func Files(paths []string) *Report {
	issues := make([]Issue, 0)
	for _, path := range paths {
		issues = append(issues, checkFile(path)...)
	}
	return &Report{Issues: issues}
}

func checkFile(path string) []Issue {
	doc, err := parser.ParseFile(path)
	if err != nil {
		return []Issue{parseIssue(path, err)}
	}

	actions, report, err := replay.Normalize(doc)
	if err != nil {
		return []Issue{parseIssue(path, err)}
	}

	var issues []Issue
	if len(actions) != len(doc.Actions) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeLengthMismatch,
			Message:  fmt.Sprintf("normalized %d actions from %d raw actions", len(actions), len(doc.Actions)),
			MatchID:  doc.MatchID,
			FilePath: path,
		})
	}

	summary, summaryReport := replay.Summarize(doc)
	_, turnReport := replay.TurnDurations(actions)
	report.Merge(summaryReport)
	report.Merge(turnReport)

	for _, issue := range report.Issues {
		// vs-AI matches never carry opponents.
		if issue.Code == replay.CodeMissingGenesisModeModel && summary.GameMode == replay.ModeVersusAI {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     string(issue.Code),
			Message:  issue.Error(),
			MatchID:  doc.MatchID,
			FilePath: path,
		})
	}
	return issues
}

func parseIssue(path string, err error) Issue {
	code := codeUnreadable
	switch {
	case errors.Is(err, parser.ErrNotJSON):
		code = codeNotJSON
	case errors.Is(err, parser.ErrNotReplay):
		code = codeNotReplay
	case errors.Is(err, replay.ErrMissingActions):
		code = codeMissingActions
	}
	return Issue{
		Severity: SeverityError,
		Code:     code,
		Message:  err.Error(),
		FilePath: path,
	}
}

// Store checks the stored replays against the participation ledger.
func Store(ctx context.Context, db StoreValidator) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}

	issues := make([]Issue, 0)

	empty, err := db.ListReplaysWithoutActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list replays without actions: %w", err)
	}
	for _, ref := range empty {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeEmptyReplay,
			Message:  "replay stored without actions",
			MatchID:  ref.MatchID,
			FilePath: ref.SourceFile,
		})
	}

	missing, err := db.ListMissingReplays(ctx)
	if err != nil {
		return nil, fmt.Errorf("list missing replays: %w", err)
	}
	for _, p := range missing {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeMissingReplay,
			Message:  fmt.Sprintf("participation %s is processed but no replay is stored", p.PID),
		})
	}

	return &Report{Issues: issues}, nil
}
