package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"sapreplay/internal/replay"
)

var (
	ErrNotJSON   = errors.New("replay file is not valid JSON")
	ErrNotReplay = errors.New("replay file is not a replay object")
)

func ParseFile(path string) (*replay.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.ParticipationID = ParticipationID(path)
	return doc, nil
}

func Parse(content []byte) (*replay.Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.TrimRight(trimmed, "\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrNotReplay
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
		}
		return nil, ErrNotReplay
	}
	if len(keys) == 0 {
		return nil, ErrNotReplay
	}
	if actions, ok := keys["Actions"]; !ok || bytes.Equal(bytes.TrimSpace(actions), []byte("null")) {
		return nil, replay.ErrMissingActions
	}

	var doc replay.Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReplay, err)
	}
	if doc.Actions == nil {
		doc.Actions = []replay.RawAction{}
	}
	return &doc, nil
}

// ParticipationID derives the participation id from a replay file name
// (<pid>.json).
func ParticipationID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
