package omega

import "fmt"

// pairKey identifies a state of a product construction.
type pairKey struct {
	first, second int
}

func (k pairKey) Hash() uint64 {
	return hashInts(k.first, k.second)
}

func (k pairKey) Equals(other Hashable) bool {
	o, ok := other.(pairKey)
	return ok && o == k
}

// DegeneralizeTBA turns a generalized Büchi automaton into an equivalent
// transition-based Büchi automaton over the same dictionary.
//
// States of the result pair an input state with a level: the index of the
// next acceptance set to be seen. A transition whose mark lets the level go
// past the last set is accepting, and the level restarts from 0. Only the
// part reachable from the initial state is built. An automaton that is
// already Büchi is returned unchanged.
func DegeneralizeTBA(a *Automaton) (*Automaton, error) {
	if a.GetNumStates() == 0 {
		return nil, ErrNoInitialState
	}
	n, ok := a.Acceptance().Code.IsGeneralizedBuchi()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAcceptance, a.Acceptance())
	}
	if n == 1 {
		return a, nil
	}

	res := NewAutomaton(a.Dict())
	res.registerAPs(a.aps)
	res.SetAcceptance(1, Buchi())
	res.SetPropStutterInvariant(a.PropStutterInvariant())

	seen := NewHashMap[int](WithCapacity(a.GetNumStates()))
	var todo []pairKey
	get := func(k pairKey) int {
		s, inserted := seen.Insert(k, res.GetNumStates())
		if inserted {
			res.CreateState()
			todo = append(todo, k)
		}
		return s
	}

	get(pairKey{a.GetInitialState(), 0})
	accepting := NewMark(0)
	for i := 0; i < len(todo); i++ {
		cur := todo[i]
		src, _ := seen.Get(cur)
		for t := range a.Transitions(cur.first) {
			level, acc := nextLevel(uint(cur.second), n, t.Acc)
			var mark Mark
			if acc {
				mark = accepting
			}
			dst := get(pairKey{t.Dest, int(level)})
			if err := res.AddTransition(src, dst, t.Cond, mark); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// nextLevel advances level over the sets of m. It reports whether the level
// went through all n sets.
func nextLevel(level, n uint, m Mark) (uint, bool) {
	if n == 0 {
		return 0, true
	}
	for level < n && m.Has(level) {
		level++
	}
	if level < n {
		return level, false
	}
	level = 0
	for level < n && m.Has(level) {
		level++
	}
	if level == n {
		level = 0
	}
	return level, true
}
