package omega

type Automata struct {
}

// MakeEmpty
// Returns a new deterministic automaton with the empty language: one state
// and no transition.
func (*Automata) MakeEmpty(dict *Dict) *Automaton {
	a := NewAutomaton(dict)
	a.CreateState()
	a.SetAcceptance(0, AccFalse())
	a.SetPropDeterministic(Yes)
	a.SetPropStutterInvariant(Yes)
	return a
}

// MakeUniversal
// Returns a new deterministic automaton accepting every word: one state with
// an accepting self-loop labeled true.
func (*Automata) MakeUniversal(dict *Dict) (*Automaton, error) {
	a := NewAutomaton(dict)
	s := a.CreateState()
	a.SetAcceptance(1, Buchi())
	if err := a.AddTransition(s, s, dict.True(), NewMark(0)); err != nil {
		return nil, err
	}
	a.SetPropDeterministic(Yes)
	a.SetPropStutterInvariant(Yes)
	return a, nil
}
