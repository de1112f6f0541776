// Package pids reads participation ids from the formats they are shared in:
// bracketed id lists and the {"Pid":...,"T":...} snippets posted in chat.
package pids

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var messagePattern = regexp.MustCompile(`\{\s*"Pid"\s*:\s*"([^"]+)"\s*,\s*"T"\s*:\s*\d+\s*\}`)

// ParseList parses a list such as `["a", "b"]`, `[a, b]` or `a,b`.
// Blank entries are dropped.
func ParseList(text string) []string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil
	}

	var ids []string
	for _, item := range strings.Split(s, ",") {
		id := strings.Trim(strings.TrimSpace(item), `"'`)
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// FromMessage extracts every id embedded in a chat message.
func FromMessage(text string) []string {
	var ids []string
	for _, match := range messagePattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, match[1])
	}
	return ids
}

func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Normalize lowercases valid ids, drops duplicates while keeping first-seen
// order, and returns the rejected entries separately.
func Normalize(ids []string) (valid []string, invalid []string) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			invalid = append(invalid, id)
			continue
		}
		key := parsed.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, key)
	}
	return valid, invalid
}
