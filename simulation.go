package omega

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// ComputeImplications returns, for each state p of a, the set of states q
// that directly simulate p: every transition of p is matched, letter by
// letter, by transitions of q carrying at least the same acceptance sets and
// leading to a state simulating the destination. When q simulates p, every
// word accepted from p is accepted from q, which reads "p implies q".
//
// The relation is the greatest fixpoint of that matching condition. It is
// reflexive, and only meaningful for conditions without Fin.
func ComputeImplications(a *Automaton) ([]*bitset.BitSet, error) {
	if a.Acceptance().Code.HasFin() {
		return nil, fmt.Errorf("%w: simulation of %s", ErrUnsupportedAcceptance, a.Acceptance())
	}
	n := a.GetNumStates()
	dict := a.Dict()

	implies := make([]*bitset.BitSet, n)
	for p := range implies {
		implies[p] = bitset.New(uint(n))
		implies[p].FlipRange(0, uint(n))
	}

	for changed := true; changed; {
		changed = false
		for p := 0; p < n; p++ {
			for q, ok := implies[p].NextSet(0); ok; q, ok = implies[p].NextSet(q + 1) {
				if int(q) == p || simulates(a, dict, implies, p, int(q)) {
					continue
				}
				implies[p].Clear(q)
				changed = true
			}
		}
	}
	return implies, nil
}

// simulates checks one round of the matching condition of q against p.
func simulates(a *Automaton, dict *Dict, implies []*bitset.BitSet, p, q int) bool {
	for tp := range a.Transitions(p) {
		cover := dict.False()
		for tq := range a.Transitions(q) {
			if tp.Acc.Subset(tq.Acc) && implies[tp.Dest].Test(uint(tq.Dest)) {
				cover = dict.Or(cover, tq.Cond)
			}
		}
		if !dict.Implies(tp.Cond, cover) {
			return false
		}
	}
	return true
}
