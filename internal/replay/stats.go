package replay

// ActionStats is the overview shown next to a replay timeline.
type ActionStats struct {
	Total      int          `json:"total"`
	Counts     map[Kind]int `json:"counts"`
	MaxTurn    int          `json:"maxTurn"`
	FinalLives *int         `json:"finalLives"`
}

func Stats(actions []Action) ActionStats {
	stats := ActionStats{
		Total:  len(actions),
		Counts: make(map[Kind]int),
	}
	for _, a := range actions {
		stats.Counts[a.Kind]++
		if a.Turn > stats.MaxTurn {
			stats.MaxTurn = a.Turn
		}
	}
	if len(actions) > 0 {
		stats.FinalLives = actions[len(actions)-1].Lives
	}
	return stats
}

type LivesPoint struct {
	Index int    `json:"index"`
	Turn  int    `json:"turn"`
	Time  string `json:"time"`
	Lives int    `json:"lives"`
}

// LivesSeries returns the lives total at every action that has one.
func LivesSeries(actions []Action) []LivesPoint {
	var points []LivesPoint
	for _, a := range actions {
		if a.Lives == nil {
			continue
		}
		points = append(points, LivesPoint{Index: a.Index, Turn: a.Turn, Time: a.Time, Lives: *a.Lives})
	}
	return points
}
