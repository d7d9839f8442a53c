package omega

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// IsDeterministic
// Returns true if no state of a has two outgoing transitions sharing a
// letter.
func IsDeterministic(a *Automaton) bool {
	dict := a.Dict()
	for s := 0; s < a.GetNumStates(); s++ {
		seen := dict.False()
		for t := range a.Transitions(s) {
			if !dict.Disjoint(seen, t.Cond) {
				return false
			}
			seen = dict.Or(seen, t.Cond)
		}
	}
	return true
}

// IsComplete
// Returns true if every state of a has an outgoing transition for every
// letter.
func IsComplete(a *Automaton) bool {
	if a.GetNumStates() == 0 {
		return false
	}
	dict := a.Dict()
	for s := 0; s < a.GetNumStates(); s++ {
		covered := dict.False()
		for t := range a.Transitions(s) {
			covered = dict.Or(covered, t.Cond)
		}
		if !dict.IsTrue(covered) {
			return false
		}
	}
	return true
}

// IsEmpty
// Returns true if a accepts no word. Only conditions without Fin are
// supported.
func IsEmpty(a *Automaton) (bool, error) {
	if a.GetNumStates() == 0 {
		return true, nil
	}
	if a.Acceptance().Code.HasFin() {
		return false, fmt.Errorf("%w: emptiness of %s", ErrUnsupportedAcceptance, a.Acceptance())
	}
	info := NewSCCInfo(a)
	return !info.IsUseful(info.SCCOf(a.GetInitialState())), nil
}

// copyAutomaton copies states, transitions, acceptance and properties.
func copyAutomaton(a *Automaton) *Automaton {
	res := NewAutomaton(a.Dict())
	res.registerAPs(a.aps)
	res.acc = a.acc
	res.initial = a.initial
	res.deterministic = a.deterministic
	res.stutterInvariant = a.stutterInvariant
	res.states = make([][]int, len(a.states))
	for s, out := range a.states {
		res.states[s] = append([]int(nil), out...)
	}
	res.transitions = append([]Transition(nil), a.transitions...)
	for name, value := range a.namedProps {
		res.namedProps[name] = value
	}
	return res
}

// Complete
// Returns a copy of a where every state has a successor for every letter.
// Missing letters lead to a new non-accepting sink. When the acceptance
// condition is satisfied by a run visiting no set, a fresh set is added to
// the condition and put on every original transition so that the sink
// rejects.
func Complete(a *Automaton) (*Automaton, error) {
	if a.GetNumStates() == 0 {
		return nil, ErrNoInitialState
	}
	res := copyAutomaton(a)
	if IsComplete(a) {
		return res, nil
	}

	if acc := res.Acceptance(); acc.Code.Accepting(Mark{}) {
		fresh := acc.NumSets
		extra := NewMark(fresh)
		for i := range res.transitions {
			res.transitions[i].Acc = res.transitions[i].Acc.Union(extra)
		}
		res.SetAcceptance(fresh+1, acc.Code.And(Inf(fresh)))
	}

	dict := res.Dict()
	n := res.GetNumStates()
	sink := res.CreateState()
	for s := 0; s < n; s++ {
		missing := dict.True()
		for t := range res.Transitions(s) {
			missing = dict.Minus(missing, t.Cond)
		}
		if dict.IsFalse(missing) {
			continue
		}
		if err := res.AddTransition(s, sink, missing, Mark{}); err != nil {
			return nil, err
		}
	}
	if err := res.AddTransition(sink, sink, dict.True(), Mark{}); err != nil {
		return nil, err
	}
	if IsDeterministic(a) {
		res.SetPropDeterministic(Yes)
	}
	return res, nil
}

// Complement
// Returns an automaton accepting exactly the words a rejects. a must be
// deterministic; determinize it first otherwise.
func Complement(a *Automaton) (*Automaton, error) {
	if a.PropDeterministic() != Yes && !IsDeterministic(a) {
		return nil, ErrNotDeterministic
	}
	res, err := Complete(a)
	if err != nil {
		return nil, err
	}
	acc := res.Acceptance()
	res.SetAcceptance(acc.NumSets, acc.Code.Complement())
	res.SetPropDeterministic(Yes)
	return res, nil
}

// RemoveUselessStates
// Returns a copy of a restricted to the states that are reachable from the
// initial state and can reach an accepting cycle. Marks on transitions
// between components, which no cycle can visit, are dropped. Only conditions
// without Fin are supported.
func RemoveUselessStates(a *Automaton) (*Automaton, error) {
	if a.GetNumStates() == 0 {
		return nil, ErrNoInitialState
	}
	if a.Acceptance().Code.HasFin() {
		return nil, fmt.Errorf("%w: pruning of %s", ErrUnsupportedAcceptance, a.Acceptance())
	}
	info := NewSCCInfo(a)
	numStates := a.GetNumStates()

	live := bitset.New(uint(numStates))
	for s := 0; s < numStates; s++ {
		if scc := info.SCCOf(s); scc >= 0 && info.IsUseful(scc) {
			live.Set(uint(s))
		}
	}
	live.Set(uint(a.GetInitialState()))

	result := NewAutomaton(a.Dict())
	result.registerAPs(a.aps)
	result.acc = a.acc
	result.stutterInvariant = a.stutterInvariant

	mp := make([]int, numStates)
	for s := 0; s < numStates; s++ {
		if live.Test(uint(s)) {
			mp[s] = result.CreateState()
		}
	}
	if err := result.SetInitialState(mp[a.GetInitialState()]); err != nil {
		return nil, err
	}
	if !info.IsUseful(info.SCCOf(a.GetInitialState())) {
		return result, nil
	}

	dict := a.Dict()
	for s := 0; s < numStates; s++ {
		if !live.Test(uint(s)) {
			continue
		}
		for t := range a.Transitions(s) {
			// filter out transitions to useless states
			if !live.Test(uint(t.Dest)) || dict.IsFalse(t.Cond) {
				continue
			}
			acc := t.Acc
			if info.SCCOf(s) != info.SCCOf(t.Dest) {
				acc = Mark{}
			}
			if err := result.AddTransition(mp[s], mp[t.Dest], t.Cond, acc); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}
