package replay

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Document is one replay as returned by the playback API.
type Document struct {
	MatchID           string      `json:"MatchId"`
	CreatedOn         string      `json:"CreatedOn"`
	UserID            string      `json:"UserId"`
	UserName          string      `json:"UserName"`
	LastTurn          int         `json:"LastTurn"`
	Outcome           Outcome     `json:"Outcome"`
	Mode              Mode        `json:"Mode"`
	GenesisModeModel  Payload     `json:"GenesisModeModel"`
	GenesisBuildModel Payload     `json:"GenesisBuildModel"`
	Actions           []RawAction `json:"Actions"`

	// ParticipationID is not part of the payload; replays are stored as <pid>.json.
	ParticipationID string `json:"-"`
}

type RawAction struct {
	Type             int     `json:"Type"`
	Turn             int     `json:"Turn"`
	CreatedOn        string  `json:"CreatedOn"`
	BuildChangeCount int     `json:"BuildChangeCount"`
	Request          Payload `json:"Request"`
	Response         Payload `json:"Response"`
	Build            Payload `json:"Build"`
	Battle           Payload `json:"Battle"`
	Mode             Payload `json:"Mode"`
}

// Payload is the JSON text of a separately encoded sub-document. The API
// ships these as JSON strings; inline objects are accepted as-is.
type Payload []byte

func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding payload string: %w", err)
		}
		if s == "" {
			*p = nil
			return nil
		}
		*p = Payload(s)
		return nil
	}
	*p = append(Payload(nil), trimmed...)
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Empty() {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

func (p Payload) Empty() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Scalar holds a JSON string or number as text; pack ids show up as both.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*s = ""
	case trimmed[0] == '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		if !json.Valid(trimmed) {
			return fmt.Errorf("invalid scalar %q", trimmed)
		}
		*s = Scalar(trimmed)
	}
	return nil
}

// GenesisMode is the decoded GenesisModeModel of versus-format matches.
type GenesisMode struct {
	MaxLives          *int       `json:"MaxLives"`
	Opponents         []Opponent `json:"Opponents"`
	ActivePlayerCount *int       `json:"ActivePlayerCount"`
	Name              *string    `json:"Name"`

	// Named is true when the Name key is present at all, even if null.
	Named bool `json:"-"`
}

type Opponent struct {
	UserID          string `json:"UserId"`
	DisplayName     string `json:"DisplayName"`
	Rank            *int   `json:"Rank"`
	Pack            Scalar `json:"Pack"`
	ParticipationID string `json:"ParticipationId"`
}

// DecodeGenesisMode decodes the document's GenesisModeModel. It returns
// (nil, nil) when the model is absent.
func (d *Document) DecodeGenesisMode() (*GenesisMode, error) {
	if d == nil || d.GenesisModeModel.Empty() {
		return nil, nil
	}

	obj, err := decodeObject(json.RawMessage(d.GenesisModeModel))
	if err != nil {
		return nil, fmt.Errorf("%w: genesis mode model: %v", ErrUndecodablePayload, err)
	}

	var mode GenesisMode
	if err := json.Unmarshal(d.GenesisModeModel, &mode); err != nil {
		return nil, fmt.Errorf("%w: genesis mode model: %v", ErrUndecodablePayload, err)
	}
	_, mode.Named = obj["Name"]
	return &mode, nil
}

type buildModel struct {
	Bor *struct {
		Pack Scalar `json:"Pack"`
	} `json:"Bor"`
}

// UserPack returns GenesisBuildModel.Bor.Pack, or "" when absent.
func (d *Document) UserPack() (string, error) {
	if d == nil || d.GenesisBuildModel.Empty() {
		return "", nil
	}
	var model buildModel
	if err := json.Unmarshal(d.GenesisBuildModel, &model); err != nil {
		return "", fmt.Errorf("%w: genesis build model: %v", ErrUndecodablePayload, err)
	}
	if model.Bor == nil {
		return "", nil
	}
	return string(model.Bor.Pack), nil
}
