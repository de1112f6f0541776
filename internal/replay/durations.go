package replay

import (
	"sort"
	"time"

	"sapreplay/internal/timestamp"
)

// TurnInterval is the wall-clock span of one shop turn.
type TurnInterval struct {
	Turn           int       `json:"turn"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}

type turnMarkers struct {
	start, end *Action
}

// TurnDurations pairs the first start-turn with the last end-turn of every
// turn number. Turns missing either marker are left out, as are turns whose
// markers carry malformed timestamps. Elapsed time never goes below zero.
func TurnDurations(actions []Action) ([]TurnInterval, Report) {
	var report Report
	markers := make(map[int]*turnMarkers)

	for i := range actions {
		a := &actions[i]
		if a.Kind != KindStartTurn && a.Kind != KindEndTurn {
			continue
		}
		m, ok := markers[a.Turn]
		if !ok {
			m = &turnMarkers{}
			markers[a.Turn] = m
		}
		switch a.Kind {
		case KindStartTurn:
			if m.start == nil {
				m.start = a
			}
		case KindEndTurn:
			m.end = a
		}
	}

	turns := make([]int, 0, len(markers))
	for turn, m := range markers {
		if m.start != nil && m.end != nil {
			turns = append(turns, turn)
		}
	}
	sort.Ints(turns)

	intervals := make([]TurnInterval, 0, len(turns))
	for _, turn := range turns {
		m := markers[turn]
		start, err := timestamp.Parse(m.start.Time)
		if err != nil {
			report.add(m.start.Index, turn, CodeMalformedTimestamp, err)
			continue
		}
		end, err := timestamp.Parse(m.end.Time)
		if err != nil {
			report.add(m.end.Index, turn, CodeMalformedTimestamp, err)
			continue
		}
		elapsed := end.Sub(start).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		intervals = append(intervals, TurnInterval{
			Turn:           turn,
			Start:          start,
			End:            end,
			ElapsedSeconds: elapsed,
		})
	}
	return intervals, report
}
