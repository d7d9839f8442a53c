package omega

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// noColor is the priority of a successor that emitted nothing.
const noColor = -1

// SafraState is a macrostate of the determinization: a Safra tree flattened
// into, for each tracked state of the input automaton, the path of braces
// from the root down to the state. Braces are indexes into braceCount and
// greenEligible; a lower index denotes an older brace, and every path is
// strictly increasing.
//
// After finalize the braces are numbered 0..n-1 without gaps, every brace
// holds at least one state, and two states are the same macrostate exactly
// when their nodes are equal.
type SafraState struct {
	nodes map[int][]int

	// Number of tracked states below each brace.
	braceCount []int

	// Whether a brace may still emit green during the current step.
	greenEligible []bool

	// Priority emitted by the step that built this state: 2i when brace i
	// turned red, 2i+1 when it turned green, noColor otherwise.
	color int
}

// newInitialSafraState tracks state alone. When accepting is false the
// state is placed outside of any brace, no cycle through it being
// accepting.
func newInitialSafraState(state int, accepting bool) *SafraState {
	s := &SafraState{
		nodes: make(map[int][]int, 1),
		color: noColor,
	}
	if !accepting {
		s.nodes[state] = nil
		return s
	}
	s.nodes[state] = []int{0}
	s.braceCount = []int{1}
	s.greenEligible = []bool{true}
	return s
}

// newSafraState returns the empty macrostate reusing the n braces of its
// predecessor, all of them green eligible.
func newSafraState(n int) *SafraState {
	s := &SafraState{
		nodes:         make(map[int][]int),
		braceCount:    make([]int, n),
		greenEligible: make([]bool, n),
		color:         noColor,
	}
	for i := range s.greenEligible {
		s.greenEligible[i] = true
	}
	return s
}

// NumStates returns the number of tracked input states.
func (s *SafraState) NumStates() int {
	return len(s.nodes)
}

// NumBraces returns the number of live braces.
func (s *SafraState) NumBraces() int {
	return len(s.braceCount)
}

// Color returns the priority emitted when the state was built, -1 if none.
func (s *SafraState) Color() int {
	return s.color
}

// Path returns the braces enclosing state, outermost first.
func (s *SafraState) Path(state int) ([]int, bool) {
	p, ok := s.nodes[state]
	return p, ok
}

func (s *SafraState) states() []int {
	res := make([]int, 0, len(s.nodes))
	for q := range s.nodes {
		res = append(res, q)
	}
	slices.Sort(res)
	return res
}

// nestingLess reports whether lhs denotes an older position than rhs: the
// first differing brace is older, or lhs extends rhs.
func nestingLess(lhs, rhs []int) bool {
	m := min(len(lhs), len(rhs))
	for i := 0; i < m; i++ {
		if lhs[i] != rhs[i] {
			return lhs[i] < rhs[i]
		}
	}
	return len(lhs) > len(rhs)
}

// updateSucc places dst below path. An accepting transition opens a fresh
// brace below path, not green eligible since nothing is nested in it yet.
// When dst is already tracked, the older position wins.
func (s *SafraState) updateSucc(path []int, dst int, accepting bool) {
	p := slices.Clone(path)
	if accepting {
		p = append(p, len(s.braceCount))
		s.braceCount = append(s.braceCount, 0)
		s.greenEligible = append(s.greenEligible, false)
	}
	if old, ok := s.nodes[dst]; ok {
		if !nestingLess(p, old) {
			return
		}
		for _, b := range old {
			s.braceCount[b]--
		}
	}
	s.nodes[dst] = p
	for _, b := range p {
		s.braceCount[b]++
	}
}

// mergeRedundantStates drops every tracked state a whose language is
// included in the language of another tracked state b, provided the
// component of a cannot be reached from the one of b. Among states implying
// each other, the smallest is kept.
func (s *SafraState) mergeRedundantStates(implies []*bitset.BitSet, scc *SCCInfo) {
	states := s.states()
	var remove []int
	for _, a := range states {
		for _, b := range states {
			if a == b || !implies[a].Test(uint(b)) {
				continue
			}
			if implies[b].Test(uint(a)) && a < b {
				continue
			}
			if scc.IsConnected(scc.SCCOf(b), scc.SCCOf(a)) {
				continue
			}
			remove = append(remove, a)
			break
		}
	}
	for _, a := range remove {
		for _, b := range s.nodes[a] {
			s.braceCount[b]--
		}
		delete(s.nodes, a)
	}
}

// ungreenifyLastBrace forbids the innermost brace of each path to emit
// green: a brace witnesses progress only when it strictly encloses a
// younger brace around every one of its states.
func (s *SafraState) ungreenifyLastBrace() {
	for _, p := range s.nodes {
		if len(p) > 0 {
			s.greenEligible[p[len(p)-1]] = false
		}
	}
}

// finalize computes the emission of the step and compacts the braces.
//
// A brace left empty turns red (priority 2i). A non-empty brace still green
// eligible turns green (priority 2i+1) and every brace nested in it is
// discarded. The emission is the minimal priority: the oldest brace decides,
// and red wins over green for the same brace.
func (s *SafraState) finalize() int {
	red, green := noColor, noColor
	var greens []int
	for i, count := range s.braceCount {
		switch {
		case count == 0:
			s.greenEligible[i] = false
			if red == noColor {
				red = 2 * i
			}
		case s.greenEligible[i]:
			if green == noColor {
				green = 2*i + 1
			}
			greens = append(greens, i)
		}
	}

	if len(greens) > 0 {
		for q, p := range s.nodes {
			s.nodes[q] = s.truncate(p, greens)
		}
	}

	decr := make([]int, len(s.braceCount))
	removed := 0
	for i, count := range s.braceCount {
		s.braceCount[i-removed] = count
		s.greenEligible[i-removed] = s.greenEligible[i]
		if count == 0 {
			removed++
		}
		decr[i] = removed
	}
	s.braceCount = s.braceCount[:len(s.braceCount)-removed]
	s.greenEligible = s.greenEligible[:len(s.braceCount)]
	for _, p := range s.nodes {
		for i, b := range p {
			p[i] = b - decr[b]
		}
	}

	s.check()

	switch {
	case red == noColor:
		s.color = green
	case green == noColor:
		s.color = red
	default:
		s.color = min(red, green)
	}
	return s.color
}

// truncate cuts p after its first brace among greens.
func (s *SafraState) truncate(p []int, greens []int) []int {
	for idx, b := range p {
		if !slices.Contains(greens, b) {
			continue
		}
		if idx == len(p)-1 {
			panic(internalError(fmt.Sprintf("green brace %d is innermost", b)))
		}
		for _, inner := range p[idx+1:] {
			s.braceCount[inner]--
		}
		return p[:idx+1]
	}
	return p
}

// check panics unless the brace table is consistent with the paths.
func (s *SafraState) check() {
	counts := make([]int, len(s.braceCount))
	for q, p := range s.nodes {
		for i, b := range p {
			if b < 0 || b >= len(s.braceCount) {
				panic(internalError(fmt.Sprintf("state %d refers to missing brace %d", q, b)))
			}
			if i > 0 && p[i-1] >= b {
				panic(internalError(fmt.Sprintf("state %d has unordered path %v", q, p)))
			}
			counts[b]++
		}
	}
	for b, count := range s.braceCount {
		if count == 0 || count != counts[b] {
			panic(internalError(fmt.Sprintf("brace %d counts %d states, found %d", b, count, counts[b])))
		}
	}
}

// Compare orders macrostates by tracked states first, then by their paths.
// It returns 0 exactly when both have the same nodes.
func (s *SafraState) Compare(o *SafraState) int {
	ls, rs := s.states(), o.states()
	for i := 0; i < len(ls) && i < len(rs); i++ {
		if ls[i] != rs[i] {
			if ls[i] < rs[i] {
				return -1
			}
			return 1
		}
		if c := slices.Compare(s.nodes[ls[i]], o.nodes[rs[i]]); c != 0 {
			return c
		}
	}
	switch {
	case len(ls) < len(rs):
		return -1
	case len(ls) > len(rs):
		return 1
	}
	return 0
}

func (s *SafraState) Hash() uint64 {
	vals := make([]int, 0, 2*len(s.nodes))
	for _, q := range s.states() {
		vals = append(vals, q, len(s.nodes[q]))
		vals = append(vals, s.nodes[q]...)
	}
	return hashInts(vals...)
}

func (s *SafraState) Equals(other Hashable) bool {
	o, ok := other.(*SafraState)
	if !ok || len(s.nodes) != len(o.nodes) {
		return false
	}
	for q, p := range s.nodes {
		op, ok := o.nodes[q]
		if !ok || !slices.Equal(p, op) {
			return false
		}
	}
	return true
}

func subscript(n int) string {
	digits := strconv.Itoa(n)
	var sb strings.Builder
	for _, d := range digits {
		sb.WriteRune('₀' + (d - '0'))
	}
	return sb.String()
}

// String renders the tree with subscripted braces, e.g. {₀2{₁1₁}₀}.
func (s *SafraState) String() string {
	states := s.states()
	slices.SortStableFunc(states, func(a, b int) int {
		return slices.Compare(s.nodes[a], s.nodes[b])
	})

	var sb strings.Builder
	var stack []int
	first := true
	for _, q := range states {
		p := s.nodes[q]
		pos := 0
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			j, found := slices.BinarySearch(p, top)
			pos = j
			if !found {
				sb.WriteString(subscript(top) + "}")
				stack = stack[:len(stack)-1]
				continue
			}
			pos = j + 1
			break
		}
		for ; pos < len(p); pos++ {
			sb.WriteString("{" + subscript(p[pos]))
			stack = append(stack, p[pos])
			first = true
		}
		if !first {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(q))
		first = false
	}
	for len(stack) > 0 {
		sb.WriteString(subscript(stack[len(stack)-1]) + "}")
		stack = stack[:len(stack)-1]
	}
	return sb.String()
}
