package replay

// Outcome is a match or battle result code.
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDraw:
		return "draw"
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// ParseOutcome accepts the names returned by String.
func ParseOutcome(name string) (Outcome, bool) {
	for o := OutcomeDraw; o <= OutcomeAbandoned; o++ {
		if o.String() == name {
			return o, true
		}
	}
	return 0, false
}

// Mode is the top-level game mode of a match.
type Mode int

const (
	ModeVersusAI Mode = iota
	ModeArena
)

func (m Mode) String() string {
	switch m {
	case ModeVersusAI:
		return "vs-ai"
	case ModeArena:
		return "arena"
	default:
		return "unknown"
	}
}

func ParseMode(name string) (Mode, bool) {
	for m := ModeVersusAI; m <= ModeArena; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}
