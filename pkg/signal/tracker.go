package signal

type State int

const (
	Unarmed State = iota
	Armed
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	default:
		return "unarmed"
	}
}

// Tracker keeps the crossover state of each symbol so a crossover is only
// notified once until a tick without crossover re-arms it.
// It is not safe for concurrent use.
type Tracker struct {
	states map[string]State
}

func NewTracker(symbols ...string) *Tracker {
	t := &Tracker{states: make(map[string]State, len(symbols))}
	for _, s := range symbols {
		t.states[s] = Unarmed
	}
	return t
}

// Observe applies a tick result to the symbol state and returns true when
// an event must be emitted.
func (t *Tracker) Observe(symbol string, crossed bool) bool {
	prev := t.states[symbol]
	if !crossed {
		t.states[symbol] = Unarmed
		return false
	}
	t.states[symbol] = Armed
	return prev == Unarmed
}

func (t *Tracker) State(symbol string) State {
	return t.states[symbol]
}
