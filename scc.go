package omega

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

type sccNode struct {
	states    []int
	succ      []int
	acc       Mark
	trivial   bool
	accepting bool
	useful    bool
}

// SCCInfo holds the strongly connected components of the part of an
// automaton reachable from its initial state. Components are numbered in
// reverse topological order: every successor of component i has a number
// lower or equal to i, so the initial state belongs to the last one.
type SCCInfo struct {
	aut   *Automaton
	sccOf []int
	sccs  []sccNode
	reach []*bitset.BitSet
}

// NewSCCInfo computes the components of a with an iterative Tarjan
// traversal starting from the initial state.
func NewSCCInfo(a *Automaton) *SCCInfo {
	n := a.GetNumStates()
	info := &SCCInfo{
		aut:   a,
		sccOf: make([]int, n),
	}
	for i := range info.sccOf {
		info.sccOf[i] = -1
	}
	if n == 0 {
		return info
	}

	index := 0
	nodeIndex := make([]int, n)
	lowLink := make([]int, n)
	onStack := bitset.New(uint(n))
	for i := range nodeIndex {
		nodeIndex[i] = -1
	}
	var stack []int

	type callFrame struct {
		state int
		edges []int
		next  int
	}
	edgesOf := func(s int) []int {
		var dst []int
		for t := range a.Transitions(s) {
			dst = append(dst, t.Dest)
		}
		return dst
	}

	enter := func(s int) callFrame {
		nodeIndex[s] = index
		lowLink[s] = index
		index++
		stack = append(stack, s)
		onStack.Set(uint(s))
		return callFrame{state: s, edges: edgesOf(s)}
	}

	callStack := []callFrame{enter(a.GetInitialState())}
	for len(callStack) > 0 {
		frame := &callStack[len(callStack)-1]
		if frame.next < len(frame.edges) {
			dst := frame.edges[frame.next]
			frame.next++
			if nodeIndex[dst] < 0 {
				callStack = append(callStack, enter(dst))
			} else if onStack.Test(uint(dst)) && nodeIndex[dst] < lowLink[frame.state] {
				lowLink[frame.state] = nodeIndex[dst]
			}
			continue
		}

		s := frame.state
		if lowLink[s] == nodeIndex[s] {
			num := len(info.sccs)
			var states []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack.Clear(uint(w))
				info.sccOf[w] = num
				states = append(states, w)
				if w == s {
					break
				}
			}
			slices.Sort(states)
			info.sccs = append(info.sccs, sccNode{states: states})
		}
		callStack = callStack[:len(callStack)-1]
		if len(callStack) > 0 {
			parent := &callStack[len(callStack)-1]
			if lowLink[s] < lowLink[parent.state] {
				lowLink[parent.state] = lowLink[s]
			}
		}
	}

	info.summarize()
	return info
}

func (info *SCCInfo) summarize() {
	code := info.aut.Acceptance().Code
	for num := range info.sccs {
		node := &info.sccs[num]
		node.trivial = true
		succ := bitset.New(uint(len(info.sccs)))
		for _, s := range node.states {
			for t := range info.aut.Transitions(s) {
				dst := info.sccOf[t.Dest]
				if dst == num {
					node.trivial = false
					node.acc = node.acc.Union(t.Acc)
				} else if !succ.Test(uint(dst)) {
					succ.Set(uint(dst))
					node.succ = append(node.succ, dst)
				}
			}
		}
		slices.Sort(node.succ)
		node.accepting = !node.trivial && code.Accepting(node.acc)
	}

	// Successors always carry lower numbers, so a single increasing pass
	// settles usefulness and reachability.
	info.reach = make([]*bitset.BitSet, len(info.sccs))
	for num := range info.sccs {
		node := &info.sccs[num]
		r := bitset.New(uint(len(info.sccs)))
		r.Set(uint(num))
		node.useful = node.accepting
		for _, dst := range node.succ {
			r.InPlaceUnion(info.reach[dst])
			node.useful = node.useful || info.sccs[dst].useful
		}
		info.reach[num] = r
	}
}

// SCCCount returns the number of reachable components.
func (info *SCCInfo) SCCCount() int {
	return len(info.sccs)
}

// SCCOf returns the component of state, or -1 when state is unreachable.
func (info *SCCInfo) SCCOf(state int) int {
	return info.sccOf[state]
}

// States returns the states of component scc, sorted.
func (info *SCCInfo) States(scc int) []int {
	return info.sccs[scc].states
}

// Succ returns the components directly reachable from scc, itself excluded.
func (info *SCCInfo) Succ(scc int) []int {
	return info.sccs[scc].succ
}

// IsTrivial reports whether scc has no internal transition.
func (info *SCCInfo) IsTrivial(scc int) bool {
	return info.sccs[scc].trivial
}

// AccSets returns the union of the marks of the internal transitions of scc.
func (info *SCCInfo) AccSets(scc int) Mark {
	return info.sccs[scc].acc
}

// IsAccepting reports whether some cycle of scc visiting all its internal
// transitions is accepting. This is exact for conditions without Fin.
func (info *SCCInfo) IsAccepting(scc int) bool {
	return info.sccs[scc].accepting
}

// IsUseful reports whether an accepting component is reachable from scc.
func (info *SCCInfo) IsUseful(scc int) bool {
	return info.sccs[scc].useful
}

// IsConnected reports whether component to is reachable from component
// from. Every component reaches itself.
func (info *SCCInfo) IsConnected(from, to int) bool {
	return info.reach[from].Test(uint(to))
}

// Reachability returns, for each component, the set of components it
// reaches.
func (info *SCCInfo) Reachability() []*bitset.BitSet {
	return info.reach
}
