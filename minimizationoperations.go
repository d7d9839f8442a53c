package omega

import (
	"slices"
	"strconv"
	"strings"
)

// ReduceBisimulation
// Merges bisimilar states of a: states that, for each class of successors
// and each mark, are left by the same letters. The quotient accepts the
// same language, and stays deterministic when a is. State names, if any,
// follow the smallest state of each class.
func ReduceBisimulation(a *Automaton) (*Automaton, error) {
	numStates := a.GetNumStates()
	if numStates == 0 {
		return nil, ErrNoInitialState
	}

	class := make([]int, numStates)
	count := 1
	for {
		ids := make(map[string]int)
		next := make([]int, numStates)
		for s := 0; s < numStates; s++ {
			sig := strconv.Itoa(class[s]) + "|" + signature(a, class, s)
			id, ok := ids[sig]
			if !ok {
				id = len(ids)
				ids[sig] = id
			}
			next[s] = id
		}
		class = next
		if len(ids) == count {
			break
		}
		count = len(ids)
	}

	result := NewAutomaton(a.Dict())
	result.registerAPs(a.aps)
	result.acc = a.acc
	result.stutterInvariant = a.stutterInvariant

	// Classes are numbered in order of their smallest state, which is their
	// representative.
	reps := make([]int, 0, count)
	seen := make([]bool, count)
	for s := 0; s < numStates; s++ {
		if !seen[class[s]] {
			seen[class[s]] = true
			reps = append(reps, s)
		}
	}
	result.CreateStates(count)
	if err := result.SetInitialState(class[a.GetInitialState()]); err != nil {
		return nil, err
	}

	for c, rep := range reps {
		for _, e := range groupEdges(a, class, rep) {
			if err := result.AddTransition(c, e.dest, e.cond, e.acc); err != nil {
				return nil, err
			}
		}
	}

	if names := a.StateNames(); names != nil {
		quotient := make([]string, count)
		for c, rep := range reps {
			if rep < len(names) {
				quotient[c] = names[rep]
			}
		}
		result.SetNamedProp(PropStateNames, quotient)
	}
	if a.PropDeterministic() == Yes {
		result.SetPropDeterministic(Yes)
	}
	return result, nil
}

type groupedEdge struct {
	dest int
	acc  Mark
	cond Label
}

// groupEdges merges the transitions of state leading to the same class with
// the same mark, in order of first occurrence.
func groupEdges(a *Automaton, class []int, state int) []groupedEdge {
	dict := a.Dict()
	var res []groupedEdge
	for t := range a.Transitions(state) {
		dest := class[t.Dest]
		idx := slices.IndexFunc(res, func(e groupedEdge) bool {
			return e.dest == dest && e.acc.Equal(t.Acc)
		})
		if idx < 0 {
			res = append(res, groupedEdge{dest: dest, acc: t.Acc, cond: t.Cond})
			continue
		}
		res[idx].cond = dict.Or(res[idx].cond, t.Cond)
	}
	return res
}

// signature renders the grouped edges of state canonically. Labels are
// compared through their BDD node, which is unique for a function.
func signature(a *Automaton, class []int, state int) string {
	edges := groupEdges(a, class, state)
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = strconv.Itoa(e.dest) + e.acc.String() + ":" + strconv.Itoa(e.cond.ID())
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}
