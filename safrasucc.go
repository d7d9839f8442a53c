package omega

import (
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// partitionCache memoizes, for one determinization, the partitions of the
// label space induced by sets of transition labels. Labels are interned by
// BDD node so that two macrostates whose states share their outgoing labels
// reuse the same classes.
type partitionCache struct {
	dict   *Dict
	ids    map[int]int
	labels []Label

	// Sorted label indexes -> classes of the refined partition.
	classes map[string][]Label

	// Variables the minterms of the stutter mode range over.
	vars []int
}

func newPartitionCache(dict *Dict, vars []int) *partitionCache {
	return &partitionCache{
		dict:    dict,
		ids:     make(map[int]int),
		classes: make(map[string][]Label),
		vars:    vars,
	}
}

func (c *partitionCache) intern(l Label) int {
	if idx, ok := c.ids[l.ID()]; ok {
		return idx
	}
	idx := len(c.labels)
	c.ids[l.ID()] = idx
	c.labels = append(c.labels, l)
	return idx
}

// partition returns disjoint non-empty classes covering the label space,
// such that each class is either included in or disjoint from every label of
// idx. With minterms, classes are further split into single valuations of
// the cache variables.
func (c *partitionCache) partition(idx []int, minterms bool) []Label {
	var sb strings.Builder
	if minterms {
		sb.WriteByte('m')
	}
	for _, i := range idx {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(',')
	}
	key := sb.String()
	if classes, ok := c.classes[key]; ok {
		return classes
	}

	classes := []Label{c.dict.True()}
	for _, i := range idx {
		l := c.labels[i]
		next := make([]Label, 0, 2*len(classes))
		for _, cl := range classes {
			if in := c.dict.And(cl, l); !c.dict.IsFalse(in) {
				next = append(next, in)
			}
			if out := c.dict.Minus(cl, l); !c.dict.IsFalse(out) {
				next = append(next, out)
			}
		}
		classes = next
	}
	if minterms {
		var split []Label
		for _, cl := range classes {
			split = append(split, c.dict.Minterms(cl, c.vars)...)
		}
		classes = split
	}
	c.classes[key] = classes
	return classes
}

// safraContext holds everything the successor computation reads.
type safraContext struct {
	aut     *Automaton
	dict    *Dict
	scc     *SCCInfo
	implies []*bitset.BitSet
	cache   *partitionCache

	useSCC        bool
	useSimulation bool
	useStutter    bool
}

type safraSucc struct {
	state *SafraState
	cond  Label
}

// succKey groups successors reaching the same macrostate with the same
// emission.
type succKey struct {
	state *SafraState
	color int
}

func (k succKey) Hash() uint64 {
	return k.state.Hash() ^ uint64(uint32(mix32(k.color)))
}

func (k succKey) Equals(other Hashable) bool {
	o, ok := other.(succKey)
	return ok && k.color == o.color && k.state.Equals(o.state)
}

// successors computes the successors of s, one per maximal class of labels
// leading to the same macrostate with the same emission. The labels returned
// are pairwise disjoint and cover the whole label space.
func (c *safraContext) successors(s *SafraState) []safraSucc {
	var idx []int
	seen := make(map[int]struct{})
	for _, q := range s.states() {
		for t := range c.aut.Transitions(q) {
			i := c.cache.intern(t.Cond)
			if _, ok := seen[i]; !ok {
				seen[i] = struct{}{}
				idx = append(idx, i)
			}
		}
	}
	slices.Sort(idx)

	var res []safraSucc
	groups := NewHashMap[int]()
	for _, class := range c.cache.partition(idx, c.useStutter) {
		var succ *SafraState
		if c.useStutter {
			succ = c.stutterSucc(s, class)
		} else {
			succ = c.computeSucc(s, class)
		}
		key := succKey{state: succ, color: succ.color}
		if i, ok := groups.Get(key); ok {
			res[i].cond = c.dict.Or(res[i].cond, class)
			continue
		}
		groups.Set(key, len(res))
		res = append(res, safraSucc{state: succ, cond: class})
	}
	return res
}

// computeSucc builds the successor of s for the letters of class, which must
// be included in or disjoint from every outgoing label of the states of s.
func (c *safraContext) computeSucc(s *SafraState, class Label) *SafraState {
	succ := newSafraState(s.NumBraces())
	for _, q := range s.states() {
		path := s.nodes[q]
		for t := range c.aut.Transitions(q) {
			if !c.dict.Implies(class, t.Cond) {
				continue
			}
			if c.useSCC && c.scc.SCCOf(q) != c.scc.SCCOf(t.Dest) {
				// Leaving a component closes every brace: no cycle goes back.
				// Entering an accepting one opens a fresh brace.
				succ.updateSucc(nil, t.Dest, c.scc.IsAccepting(c.scc.SCCOf(t.Dest)))
				continue
			}
			succ.updateSucc(path, t.Dest, t.Acc.Has(0))
		}
	}
	if c.useSimulation {
		succ.mergeRedundantStates(c.implies, c.scc)
	}
	succ.ungreenifyLastBrace()
	succ.finalize()
	return succ
}

// stutterSucc reads the letter of class until a macrostate repeats. The
// result is the greatest macrostate of the cycle, with the smallest priority
// emitted along the way.
func (c *safraContext) stutterSucc(s *SafraState, class Label) *SafraState {
	ids := NewHashMap[int]()
	var visited []*SafraState
	color := noColor
	cur := s
	for {
		ids.Set(cur, len(visited))
		visited = append(visited, cur)
		cur = c.computeSucc(cur, class)
		color = minPriority(color, cur.color)
		if _, ok := ids.Get(cur); ok {
			break
		}
	}
	start, _ := ids.Get(cur)
	best := visited[start]
	for _, v := range visited[start+1:] {
		if best.Compare(v) < 0 {
			best = v
		}
	}
	res := best.clone()
	res.color = color
	return res
}

func minPriority(a, b int) int {
	switch {
	case a == noColor:
		return b
	case b == noColor:
		return a
	}
	return min(a, b)
}

func (s *SafraState) clone() *SafraState {
	res := &SafraState{
		nodes:         make(map[int][]int, len(s.nodes)),
		braceCount:    slices.Clone(s.braceCount),
		greenEligible: slices.Clone(s.greenEligible),
		color:         s.color,
	}
	for q, p := range s.nodes {
		res.nodes[q] = slices.Clone(p)
	}
	return res
}
