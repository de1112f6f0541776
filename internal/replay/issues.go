package replay

import (
	"errors"
	"fmt"
)

var (
	ErrMissingActions          = errors.New("replay has no actions list")
	ErrUndecodablePayload      = errors.New("undecodable sub-payload")
	ErrUnknownActionType       = errors.New("unknown action type")
	ErrMissingGenesisModeModel = errors.New("missing genesis mode model")
)

type IssueCode string

const (
	CodeMalformedTimestamp      IssueCode = "malformed_timestamp"
	CodeUndecodablePayload      IssueCode = "undecodable_payload"
	CodeUnknownActionType       IssueCode = "unknown_action_type"
	CodeMissingGenesisModeModel IssueCode = "missing_genesis_mode_model"
)

// DocumentIndex marks issues that belong to the document rather than an action.
const DocumentIndex = -1

// Issue is a recoverable problem found while deriving data from a replay.
type Issue struct {
	Index int
	Turn  int
	Code  IssueCode
	Err   error
}

func (i Issue) Error() string {
	if i.Index == DocumentIndex {
		return fmt.Sprintf("%s: %v", i.Code, i.Err)
	}
	return fmt.Sprintf("action %d (turn %d): %s: %v", i.Index, i.Turn, i.Code, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

type Report struct {
	Issues []Issue
}

func (r *Report) add(index, turn int, code IssueCode, err error) {
	r.Issues = append(r.Issues, Issue{Index: index, Turn: turn, Code: code, Err: err})
}

// Merge appends other's issues to r.
func (r *Report) Merge(other Report) {
	r.Issues = append(r.Issues, other.Issues...)
}

func (r Report) Empty() bool {
	return len(r.Issues) == 0
}

func (r Report) Count(code IssueCode) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Code == code {
			n++
		}
	}
	return n
}
