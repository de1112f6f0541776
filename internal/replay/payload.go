package replay

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var errNotObject = errors.New("not a JSON object")

// watchPlaceholderLen is the longest watch response that still means "no data".
const watchPlaceholderLen = 3

func decodePayload(p Payload) (json.RawMessage, error) {
	if p.Empty() {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(p)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodablePayload, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// lookup decodes obj[key] into T. A missing or null key yields (nil, nil).
func lookup[T any](obj map[string]json.RawMessage, key string) (*T, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUndecodablePayload, key, err)
	}
	return &v, nil
}

// rawField returns obj[key] verbatim, or nil when missing or null.
func rawField(obj map[string]json.RawMessage, key string) json.RawMessage {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isWatchPlaceholder(p Payload) bool {
	return len(bytes.TrimSpace(p)) <= watchPlaceholderLen
}

type newRank struct {
	OldValue *int `json:"OldValue"`
}
