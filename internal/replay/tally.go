package replay

// tally is the running per-turn counter for one kind.
type tally struct {
	kind    Kind
	turn    int
	started bool
	count   int
}

func (t *tally) observe(a Action) int {
	if !t.started || a.Turn != t.turn {
		t.turn = a.Turn
		t.started = true
		t.count = 0
	}
	if a.Kind == t.kind {
		t.count += increment(a)
	}
	return t.count
}

func increment(a Action) int {
	if a.Kind == KindBuyFood && a.Amount != nil {
		return *a.Amount
	}
	return 1
}

// Tally returns, for each action, how many actions of kind occurred so far in
// that action's turn, counting the action itself. Buy-food counts its amount.
func Tally(actions []Action, kind Kind) []int {
	counts := make([]int, len(actions))
	t := tally{kind: kind}
	for i, a := range actions {
		counts[i] = t.observe(a)
	}
	return counts
}
