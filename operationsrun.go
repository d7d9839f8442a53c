package omega

import (
	"errors"
	"fmt"
	"strings"
)

// Word is an ultimately periodic word: Prefix followed by Cycle repeated
// forever. Letters are labels holding a single valuation of the atomic
// propositions of interest.
type Word struct {
	Prefix []Label
	Cycle  []Label
}

// Format renders w the usual way, e.g. "a; !a; cycle{a}".
func (w Word) Format(dict *Dict) string {
	var sb strings.Builder
	for _, l := range w.Prefix {
		sb.WriteString(dict.Format(l))
		sb.WriteString("; ")
	}
	sb.WriteString("cycle{")
	for i, l := range w.Cycle {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(dict.Format(l))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Run
// Returns true if a accepts w. The answer is computed on the product of a
// with the lasso of w, so it is exact for every deterministic automaton and
// for nondeterministic automata whose condition has no Fin.
func Run(a *Automaton, w Word) (bool, error) {
	if len(w.Cycle) == 0 {
		return false, errors.New("word has an empty cycle")
	}
	if a.GetNumStates() == 0 {
		return false, nil
	}
	if a.Acceptance().Code.HasFin() && a.PropDeterministic() != Yes && !IsDeterministic(a) {
		return false, fmt.Errorf("%w: running a nondeterministic automaton with %s", ErrUnsupportedAcceptance, a.Acceptance())
	}

	dict := a.Dict()
	letters := append(append([]Label(nil), w.Prefix...), w.Cycle...)
	next := func(pos int) int {
		if pos+1 == len(letters) {
			return len(w.Prefix)
		}
		return pos + 1
	}

	product := NewAutomaton(dict)
	product.acc = a.acc
	seen := NewHashMap[int](WithCapacity(a.GetNumStates() * len(letters)))
	var todo []pairKey
	get := func(k pairKey) int {
		s, inserted := seen.Insert(k, product.GetNumStates())
		if inserted {
			product.CreateState()
			todo = append(todo, k)
		}
		return s
	}

	get(pairKey{a.GetInitialState(), 0})
	for i := 0; i < len(todo); i++ {
		cur := todo[i]
		src, _ := seen.Get(cur)
		for t := range a.Transitions(cur.first) {
			if !dict.Implies(letters[cur.second], t.Cond) {
				continue
			}
			dst := get(pairKey{t.Dest, next(cur.second)})
			if err := product.AddTransition(src, dst, dict.True(), t.Acc); err != nil {
				return false, err
			}
		}
	}

	info := NewSCCInfo(product)
	for scc := 0; scc < info.SCCCount(); scc++ {
		if info.IsAccepting(scc) {
			return true, nil
		}
	}
	return false, nil
}

// Letters returns every valuation of aps, as cubes over their names.
func Letters(dict *Dict, aps []string) ([]Label, error) {
	letters := []Label{dict.True()}
	for _, ap := range aps {
		p, err := dict.Prop(ap)
		if err != nil {
			return nil, err
		}
		next := make([]Label, 0, 2*len(letters))
		for _, l := range letters {
			next = append(next, dict.And(l, p), dict.And(l, dict.Not(p)))
		}
		letters = next
	}
	return letters, nil
}

// Words
// Returns every ultimately periodic word over the valuations of aps with a
// prefix of at most maxPrefix letters and a cycle of 1 to maxCycle letters.
func Words(dict *Dict, aps []string, maxPrefix, maxCycle int) ([]Word, error) {
	letters, err := Letters(dict, aps)
	if err != nil {
		return nil, err
	}
	sequences := func(minLen, maxLen int) [][]Label {
		var res [][]Label
		cur := [][]Label{nil}
		for n := 0; n <= maxLen; n++ {
			if n >= minLen {
				res = append(res, cur...)
			}
			var longer [][]Label
			for _, seq := range cur {
				for _, l := range letters {
					longer = append(longer, append(append([]Label(nil), seq...), l))
				}
			}
			cur = longer
		}
		return res
	}

	var words []Word
	for _, prefix := range sequences(0, maxPrefix) {
		for _, cycle := range sequences(1, maxCycle) {
			words = append(words, Word{Prefix: prefix, Cycle: cycle})
		}
	}
	return words, nil
}
