package replay

import (
	"testing"

	json "github.com/goccy/go-json"
)

func payload(t *testing.T, v any) Payload {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Payload(data)
}

func act(code, turn int, createdOn string) RawAction {
	return RawAction{Type: code, Turn: turn, CreatedOn: createdOn}
}

func versusDoc(t *testing.T, maxLives int, actions ...RawAction) *Document {
	t.Helper()
	return &Document{
		MatchID:   "match-1",
		CreatedOn: "2025-01-01T00:00:00Z",
		UserID:    "user-1",
		UserName:  "Tester",
		LastTurn:  3,
		Outcome:   OutcomeWin,
		Mode:      ModeArena,
		GenesisModeModel: payload(t, map[string]any{
			"MaxLives":          maxLives,
			"ActivePlayerCount": 2,
			"Opponents": []map[string]any{
				{"UserId": "opp-1", "DisplayName": "Rival", "Rank": 7, "Pack": 2, "ParticipationId": "pid-opp-1"},
			},
		}),
		Actions: actions,
	}
}

func intPtr(v int) *int {
	return &v
}

func livesOf(actions []Action) []*int {
	lives := make([]*int, len(actions))
	for i, a := range actions {
		lives[i] = a.Lives
	}
	return lives
}
