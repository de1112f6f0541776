package replay

import (
	"errors"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
)

func TestNormalizeMissingActions(t *testing.T) {
	if _, _, err := Normalize(nil); !errors.Is(err, ErrMissingActions) {
		t.Fatalf("expected ErrMissingActions for nil document, got %v", err)
	}
	if _, _, err := Normalize(&Document{MatchID: "m"}); !errors.Is(err, ErrMissingActions) {
		t.Fatalf("expected ErrMissingActions for nil actions, got %v", err)
	}

	actions, report, err := Normalize(&Document{Actions: []RawAction{}})
	if err != nil {
		t.Fatalf("empty actions should not fail: %v", err)
	}
	if len(actions) != 0 || !report.Empty() {
		t.Fatalf("expected no actions and no issues, got %d actions and %v", len(actions), report.Issues)
	}
}

func TestNormalizeLengthAndOrder(t *testing.T) {
	raw := []RawAction{
		act(0, 1, "2025-01-01T00:00:00Z"),
		act(4, 1, "2025-01-01T00:00:01Z"),
		act(99, 1, "2025-01-01T00:00:02Z"),
		{Type: 6, Turn: 1, CreatedOn: "2025-01-01T00:00:03Z", Request: Payload("{not json")},
		act(3, 1, "2025-01-01T00:00:04Z"),
		act(-1, 1, "2025-01-01T00:00:05Z"),
		act(11, 1, "2025-01-01T00:00:06Z"),
	}
	actions, report, err := Normalize(&Document{Actions: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != len(raw) {
		t.Fatalf("expected %d actions, got %d", len(raw), len(actions))
	}
	for i, a := range actions {
		if a.Index != i {
			t.Errorf("action %d has index %d", i, a.Index)
		}
		if a.Code != raw[i].Type || a.Time != raw[i].CreatedOn {
			t.Errorf("action %d does not derive from raw action %d: %+v", i, i, a)
		}
	}

	if actions[2].Kind != KindUnknown || actions[5].Kind != KindUnknown {
		t.Fatalf("expected out-of-range codes to classify as unknown, got %v and %v", actions[2].Kind, actions[5].Kind)
	}
	if got := report.Count(CodeUnknownActionType); got != 2 {
		t.Fatalf("expected 2 unknown_action_type issues, got %d", got)
	}
	if got := report.Count(CodeUndecodablePayload); got != 1 {
		t.Fatalf("expected 1 undecodable_payload issue, got %d", got)
	}
	if actions[3].Request != nil {
		t.Fatalf("expected undecodable request to be omitted, got %s", actions[3].Request)
	}
	for _, issue := range report.Issues {
		if issue.Code == CodeUnknownActionType && !errors.Is(issue, ErrUnknownActionType) {
			t.Errorf("issue %v does not wrap ErrUnknownActionType", issue)
		}
	}
}

func TestNormalizeLives(t *testing.T) {
	loss := func(t *testing.T, turn int) RawAction {
		a := act(0, turn, "2025-01-01T00:00:00Z")
		a.Battle = payload(t, map[string]any{"Outcome": int(OutcomeLoss)})
		return a
	}
	win := func(t *testing.T, turn int) RawAction {
		a := act(0, turn, "2025-01-01T00:00:00Z")
		a.Battle = payload(t, map[string]any{"Outcome": int(OutcomeWin)})
		return a
	}

	tests := []struct {
		name    string
		actions []RawAction
		want    []int
	}{
		{
			name:    "loss reported on turn 2 is recovered",
			actions: []RawAction{act(0, 1, ""), act(4, 1, ""), loss(t, 2), act(4, 2, "")},
			want:    []int{5, 5, 5, 5},
		},
		{
			name:    "loss on later turns sticks",
			actions: []RawAction{win(t, 2), loss(t, 3), act(4, 3, ""), loss(t, 4)},
			want:    []int{5, 4, 4, 3},
		},
		{
			name:    "turn 2 recovery after earlier loss",
			actions: []RawAction{loss(t, 1), win(t, 2)},
			want:    []int{4, 5},
		},
		{
			name:    "ready without battle leaves lives",
			actions: []RawAction{act(0, 1, ""), act(0, 3, "")},
			want:    []int{5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, _, err := Normalize(versusDoc(t, 5, tt.actions...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := make([]int, len(actions))
			for i, a := range actions {
				if a.Lives == nil {
					t.Fatalf("action %d has no lives", i)
				}
				got[i] = *a.Lives
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected lives %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalizeLivesOnlyIncreaseOnTurnTwoReady(t *testing.T) {
	raw := []RawAction{}
	for turn := 1; turn <= 6; turn++ {
		ready := act(0, turn, "")
		ready.Battle = payload(t, map[string]any{"Outcome": int(OutcomeLoss)})
		raw = append(raw, ready, act(4, turn, ""), act(5, turn, ""), act(11, turn, ""))
	}
	actions, _, err := Normalize(versusDoc(t, 4, raw...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(actions); i++ {
		prev, cur := *actions[i-1].Lives, *actions[i].Lives
		if cur > prev && !(actions[i].Kind == KindReady && actions[i].Turn == 2) {
			t.Fatalf("lives increased from %d to %d at action %d (%v, turn %d)", prev, cur, i, actions[i].Kind, actions[i].Turn)
		}
	}
}

func TestNormalizeWithoutGenesisModeModel(t *testing.T) {
	ready := act(0, 3, "")
	ready.Battle = payload(t, map[string]any{"Outcome": int(OutcomeLoss)})
	actions, report, err := Normalize(&Document{Actions: []RawAction{ready, act(4, 3, "")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(livesOf(actions), []*int{nil, nil}) {
		t.Fatalf("expected undefined lives, got %v", livesOf(actions))
	}
	if actions[1].PreviousTurnOutcome == nil || *actions[1].PreviousTurnOutcome != OutcomeLoss {
		t.Fatalf("expected previous outcome loss, got %v", actions[1].PreviousTurnOutcome)
	}
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
}

func TestNormalizePreviousOutcomeCarriesForward(t *testing.T) {
	ready := act(0, 2, "")
	ready.Battle = payload(t, map[string]any{"Outcome": int(OutcomeWin)})
	actions, _, err := Normalize(versusDoc(t, 5, act(4, 1, ""), ready, act(5, 2, ""), act(11, 2, "")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actions[0].PreviousTurnOutcome != nil {
		t.Fatalf("expected no previous outcome before the first ready, got %v", *actions[0].PreviousTurnOutcome)
	}
	for _, a := range actions[1:] {
		if a.PreviousTurnOutcome == nil || *a.PreviousTurnOutcome != OutcomeWin {
			t.Fatalf("expected win carried to action %d, got %v", a.Index, a.PreviousTurnOutcome)
		}
	}
}

func TestNormalizeRequestFields(t *testing.T) {
	food := act(8, 1, "")
	food.Request = payload(t, map[string]any{"Cost": 3.7, "BoardFreezes": []bool{true, false}, "BoardOrders": []int{2, 0, 1}})
	food.Response = payload(t, map[string]any{"Gold": 7})

	noCost := act(8, 1, "")
	noCost.Request = payload(t, map[string]any{"Index": 1})

	named := act(12, 1, "")
	named.Request = payload(t, map[string]any{"Name": "Board"})
	named.Response = payload(t, map[string]any{"ignored": true})

	actions, report, err := Normalize(&Document{Actions: []RawAction{food, noCost, named}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}

	if actions[0].Amount == nil || *actions[0].Amount != 3 {
		t.Fatalf("expected truncated amount 3, got %v", actions[0].Amount)
	}
	if string(actions[0].Freeze) != "[true,false]" || string(actions[0].Order) != "[2,0,1]" {
		t.Fatalf("expected freeze and order copied verbatim, got %s and %s", actions[0].Freeze, actions[0].Order)
	}
	if string(actions[0].Response) != `{"Gold":7}` {
		t.Fatalf("expected response decoded, got %s", actions[0].Response)
	}
	if actions[1].Amount != nil || actions[1].Freeze != nil {
		t.Fatalf("expected no amount or freeze, got %v %s", actions[1].Amount, actions[1].Freeze)
	}
	if actions[2].Response != nil {
		t.Fatalf("name-board declares no response, got %s", actions[2].Response)
	}
}

func TestNormalizeFoodCostOutOfRange(t *testing.T) {
	huge := act(8, 1, "")
	huge.Request = Payload(`{"Cost": 1e30}`)
	negative := act(8, 1, "")
	negative.Request = Payload(`{"Cost": -2}`)
	valid := act(8, 1, "")
	valid.Request = Payload(`{"Cost": 2}`)

	actions, report, err := Normalize(&Document{Actions: []RawAction{huge, negative, valid}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.Count(CodeUndecodablePayload); got != 2 {
		t.Fatalf("expected 2 undecodable_payload issues, got %d: %v", got, report.Issues)
	}
	for _, issue := range report.Issues {
		if !errors.Is(issue, ErrUndecodablePayload) {
			t.Errorf("issue %v does not wrap ErrUndecodablePayload", issue)
		}
	}
	if actions[0].Amount != nil || actions[1].Amount != nil {
		t.Fatalf("expected no amount for out of range costs, got %v %v", actions[0].Amount, actions[1].Amount)
	}

	if got, want := Tally(actions, KindBuyFood), []int{1, 2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tally = %v, want %v", got, want)
	}
}

func TestNormalizeWatchPlaceholder(t *testing.T) {
	placeholder := act(2, 1, "")
	placeholder.Response = Payload("[]")
	withData := act(2, 1, "")
	withData.Response = payload(t, map[string]any{"Board": []int{1}})

	actions, report, err := Normalize(&Document{Actions: []RawAction{placeholder, withData}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actions[0].Response != nil {
		t.Fatalf("expected placeholder response dropped, got %s", actions[0].Response)
	}
	if actions[1].Response == nil {
		t.Fatal("expected watch response decoded")
	}
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
}

func TestNormalizeFromWireFormat(t *testing.T) {
	content := `{
		"MatchId": "m-1",
		"CreatedOn": "2025-01-01T00:00:00Z",
		"GenesisModeModel": "{\"MaxLives\":5,\"Opponents\":[]}",
		"Actions": [
			{"Type": 0, "Turn": 1, "CreatedOn": "2025-01-01T00:00:00Z", "Battle": null, "Build": "{\"Pets\":[]}"},
			{"Type": 8, "Turn": 1, "CreatedOn": "2025-01-01T00:00:01Z", "Request": "{\"Cost\":2}", "Response": "{}"},
			{"Type": 1, "Turn": 1, "CreatedOn": "2025-01-01T00:00:02Z", "Mode": {"Slots": 5}}
		]
	}`
	var doc Document
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	actions, report, err := Normalize(&doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if actions[0].Battle != nil || string(actions[0].Build) != `{"Pets":[]}` {
		t.Fatalf("unexpected ready payloads: battle=%s build=%s", actions[0].Battle, actions[0].Build)
	}
	if actions[1].Amount == nil || *actions[1].Amount != 2 {
		t.Fatalf("expected amount 2, got %v", actions[1].Amount)
	}
	if string(actions[2].Board) != `{"Slots":5}` {
		t.Fatalf("expected inline mode payload kept, got %s", actions[2].Board)
	}
	if actions[2].Lives == nil || *actions[2].Lives != 5 {
		t.Fatalf("expected lives 5, got %v", actions[2].Lives)
	}
}

func TestNormalizeUndecodableGenesisModeModel(t *testing.T) {
	doc := &Document{GenesisModeModel: Payload("{broken"), Actions: []RawAction{act(4, 1, "")}}
	actions, report, err := Normalize(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actions[0].Lives != nil {
		t.Fatalf("expected undefined lives, got %d", *actions[0].Lives)
	}
	if len(report.Issues) != 1 || report.Issues[0].Index != DocumentIndex || report.Issues[0].Code != CodeUndecodablePayload {
		t.Fatalf("expected one document-level undecodable issue, got %v", report.Issues)
	}
}
