package replay

import (
	"errors"
	"reflect"
	"testing"

	"sapreplay/internal/timestamp"
)

func normalizeAll(t *testing.T, raw ...RawAction) []Action {
	t.Helper()
	actions, _, err := Normalize(&Document{Actions: raw})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return actions
}

func TestTurnDurations(t *testing.T) {
	actions := normalizeAll(t,
		act(4, 1, "2025-01-01T00:00:00.000000Z"),
		act(11, 1, "2025-01-01T00:00:11.000000Z"),
	)
	intervals, report := TurnDurations(actions)
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].Turn != 1 || intervals[0].ElapsedSeconds != 11 {
		t.Fatalf("expected turn 1 lasting 11s, got %+v", intervals[0])
	}
}

func TestTurnDurationsMarkers(t *testing.T) {
	actions := normalizeAll(t,
		act(4, 2, "2025-01-01T00:01:00Z"),
		act(4, 2, "2025-01-01T00:01:05Z"),
		act(11, 2, "2025-01-01T00:01:20Z"),
		act(11, 2, "2025-01-01T00:01:30Z"),
		act(4, 1, "2025-01-01T00:00:00Z"),
		act(11, 1, "2025-01-01T00:00:30Z"),
		act(4, 3, "2025-01-01T00:02:00Z"),
		act(11, 4, "2025-01-01T00:03:00Z"),
		act(4, 5, "2025-01-01T00:05:00Z"),
		act(11, 5, "2025-01-01T00:04:00Z"),
	)
	intervals, report := TurnDurations(actions)
	if !report.Empty() {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}

	got := map[int]float64{}
	var turns []int
	for _, iv := range intervals {
		got[iv.Turn] = iv.ElapsedSeconds
		turns = append(turns, iv.Turn)
	}
	if !reflect.DeepEqual(turns, []int{1, 2, 5}) {
		t.Fatalf("expected turns [1 2 5], got %v", turns)
	}
	if got[2] != 30 {
		t.Fatalf("expected first start and last end for turn 2 (30s), got %v", got[2])
	}
	if got[5] != 0 {
		t.Fatalf("expected negative span clamped to 0, got %v", got[5])
	}
	for _, iv := range intervals {
		if iv.ElapsedSeconds < 0 {
			t.Fatalf("negative elapsed time for turn %d", iv.Turn)
		}
	}
}

func TestTurnDurationsMalformedTimestamp(t *testing.T) {
	actions := normalizeAll(t,
		act(4, 1, "yesterday"),
		act(11, 1, "2025-01-01T00:00:11Z"),
		act(4, 2, "2025-01-01T00:00:20Z"),
		act(11, 2, "2025-01-01T00:00:25Z"),
	)
	intervals, report := TurnDurations(actions)
	if len(intervals) != 1 || intervals[0].Turn != 2 || intervals[0].ElapsedSeconds != 5 {
		t.Fatalf("expected only turn 2 (5s), got %+v", intervals)
	}
	if len(report.Issues) != 1 || report.Issues[0].Code != CodeMalformedTimestamp {
		t.Fatalf("expected one malformed_timestamp issue, got %v", report.Issues)
	}
	if !errors.Is(report.Issues[0], timestamp.ErrMalformedTimestamp) {
		t.Fatalf("expected issue to wrap ErrMalformedTimestamp, got %v", report.Issues[0].Err)
	}
}

func TestTally(t *testing.T) {
	actions := normalizeAll(t,
		act(4, 1, ""),
		act(6, 1, ""),
		act(6, 1, ""),
		act(5, 1, ""),
		act(6, 1, ""),
	)
	if got := Tally(actions, KindBuyPet); !reflect.DeepEqual(got, []int{0, 1, 2, 2, 3}) {
		t.Fatalf("expected [0 1 2 2 3], got %v", got)
	}
	if got := Tally(actions, KindRoll); !reflect.DeepEqual(got, []int{0, 0, 0, 1, 1}) {
		t.Fatalf("expected [0 0 0 1 1], got %v", got)
	}
}

func TestTallyResetsPerTurn(t *testing.T) {
	actions := normalizeAll(t,
		act(4, 1, ""),
		act(6, 1, ""),
		act(6, 1, ""),
		act(5, 1, ""),
		act(6, 1, ""),
		act(11, 1, ""),
		act(6, 2, ""),
		act(4, 2, ""),
		act(6, 2, ""),
		act(6, 3, ""),
	)
	got := Tally(actions, KindBuyPet)
	want := []int{0, 1, 2, 2, 3, 3, 1, 1, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := Tally(nil, KindBuyPet); len(got) != 0 {
		t.Fatalf("expected empty tally, got %v", got)
	}
}

func TestTallyBuyFoodUsesAmount(t *testing.T) {
	first := act(8, 1, "")
	first.Request = payload(t, map[string]any{"Cost": 3})
	second := act(8, 1, "")
	second.Request = payload(t, map[string]any{"Cost": 2})
	noCost := act(8, 1, "")
	nextTurn := act(8, 2, "")
	nextTurn.Request = payload(t, map[string]any{"Cost": 4})

	actions := normalizeAll(t, first, second, noCost, nextTurn)
	if got := Tally(actions, KindBuyFood); !reflect.DeepEqual(got, []int{3, 5, 6, 4}) {
		t.Fatalf("expected [3 5 6 4], got %v", got)
	}
}

func TestKindClassification(t *testing.T) {
	for code := 0; code <= 12; code++ {
		kind, ok := Classify(code)
		if !ok || int(kind) != code {
			t.Fatalf("Classify(%d) = %v, %v", code, kind, ok)
		}
		parsed, err := ParseKind(kind.String())
		if err != nil || parsed != kind {
			t.Fatalf("ParseKind(%q) = %v, %v", kind.String(), parsed, err)
		}
	}
	for _, code := range []int{-1, 13, 40} {
		if kind, ok := Classify(code); ok || kind != KindUnknown {
			t.Fatalf("Classify(%d) = %v, %v; want unknown, false", code, kind, ok)
		}
	}
	if kind, err := ParseKind("BUY_FOOD"); err != nil || kind != KindBuyFood {
		t.Fatalf("expected buy-food, got %v, %v", kind, err)
	}
	if _, err := ParseKind("teleport"); err == nil {
		t.Fatal("expected error for unknown kind name")
	}

	payloads := map[Kind]PayloadSet{
		KindReady:     PayloadBuild | PayloadBattle,
		KindMode:      PayloadMode,
		KindWatch:     PayloadResponse,
		KindUnknown:   0,
		KindBuyFood:   PayloadRequest | PayloadResponse,
		KindNameBoard: PayloadRequest,
	}
	for kind, want := range payloads {
		if got := kind.Payloads(); got != want {
			t.Errorf("%v.Payloads() = %b, want %b", kind, got, want)
		}
	}
}

func TestStats(t *testing.T) {
	ready := act(0, 3, "")
	ready.Battle = payload(t, map[string]any{"Outcome": int(OutcomeLoss)})
	actions, _, err := Normalize(versusDoc(t, 5, act(4, 1, "a"), act(6, 1, "b"), act(6, 2, "c"), ready))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	stats := Stats(actions)
	if stats.Total != 4 || stats.MaxTurn != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Counts[KindBuyPet] != 2 || stats.Counts[KindStartTurn] != 1 || stats.Counts[KindReady] != 1 {
		t.Fatalf("unexpected counts %v", stats.Counts)
	}
	if stats.FinalLives == nil || *stats.FinalLives != 4 {
		t.Fatalf("expected final lives 4, got %v", stats.FinalLives)
	}

	series := LivesSeries(actions)
	if len(series) != 4 || series[3].Lives != 4 || series[0].Time != "a" {
		t.Fatalf("unexpected lives series %+v", series)
	}
	if got := LivesSeries(normalizeAll(t, act(4, 1, ""))); got != nil {
		t.Fatalf("expected no lives points without a mode model, got %v", got)
	}
}
