package omega

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestingLess(t *testing.T) {
	tests := []struct {
		lhs, rhs []int
		want     bool
	}{
		{[]int{0}, []int{1}, true},
		{[]int{1}, []int{0}, false},
		{[]int{0, 1}, []int{0}, true},
		{[]int{0}, []int{0, 1}, false},
		{[]int{0, 2}, []int{0, 1}, false},
		{[]int{0, 1}, []int{0, 1}, false},
		{nil, nil, false},
		{[]int{0}, nil, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nestingLess(tt.lhs, tt.rhs), "%v < %v", tt.lhs, tt.rhs)
	}
}

func TestSafraStateFinalize(t *testing.T) {
	t.Run("Idle", func(t *testing.T) {
		s := newSafraState(1)
		s.updateSucc([]int{0}, 4, false)
		s.ungreenifyLastBrace()
		assert.Equal(t, noColor, s.finalize())
		assert.Equal(t, 1, s.NumBraces())
	})

	t.Run("OlderPositionWins", func(t *testing.T) {
		s := newSafraState(1)
		s.updateSucc([]int{0}, 5, false)
		// the fresh brace 1 loses against brace 0 and stays empty
		s.updateSucc(nil, 5, true)
		s.ungreenifyLastBrace()
		assert.Equal(t, 2, s.finalize())

		p, ok := s.Path(5)
		require.True(t, ok)
		assert.Equal(t, []int{0}, p)
		assert.Equal(t, 1, s.NumBraces())
	})

	t.Run("Green", func(t *testing.T) {
		s := newSafraState(1)
		s.updateSucc([]int{0}, 1, true)
		s.updateSucc([]int{0}, 2, true)
		assert.Equal(t, 3, s.NumBraces())
		s.ungreenifyLastBrace()
		assert.Equal(t, 1, s.finalize())

		assert.Equal(t, 1, s.NumBraces(), "braces nested in the green one are dropped")
		p1, _ := s.Path(1)
		p2, _ := s.Path(2)
		assert.Equal(t, []int{0}, p1)
		assert.Equal(t, []int{0}, p2)
	})

	t.Run("RedBeforeGreen", func(t *testing.T) {
		s := newSafraState(2)
		s.updateSucc([]int{1}, 3, true)
		s.ungreenifyLastBrace()
		// brace 0 is empty, brace 1 encloses brace 2 around every state
		assert.Equal(t, 0, s.finalize())
		assert.Equal(t, 1, s.NumBraces())
		p, _ := s.Path(3)
		assert.Equal(t, []int{0}, p, "braces are renumbered")
	})

	t.Run("NotGreenWhenShared", func(t *testing.T) {
		s := newSafraState(1)
		s.updateSucc([]int{0}, 1, true)
		s.updateSucc([]int{0}, 2, false)
		s.ungreenifyLastBrace()
		assert.Equal(t, noColor, s.finalize())
		assert.Equal(t, 2, s.NumBraces())
	})

	t.Run("Canonical", func(t *testing.T) {
		s := newSafraState(1)
		s.updateSucc([]int{0}, 1, true)
		s.updateSucc([]int{0}, 2, false)
		s.updateSucc(nil, 3, false)
		s.ungreenifyLastBrace()
		s.finalize()

		again := s.clone()
		for i := range again.greenEligible {
			again.greenEligible[i] = false
		}
		assert.Equal(t, noColor, again.finalize())
		assert.True(t, again.Equals(s))
		assert.Equal(t, s.Hash(), again.Hash())
	})

	t.Run("CanonicalReplay", func(t *testing.T) {
		dict := newTestDict(t)
		aut := buildAutomaton(t, dict, 4, Acceptance{1, Buchi()}, []edge{
			{0, 1, "1", nil},
			{1, 2, "1", nil},
			{2, 3, "1", nil},
			{3, 3, "1", []uint{0}},
		})
		scc := NewSCCInfo(aut)
		// each state implies only itself
		implies := make([]*bitset.BitSet, 4)
		for i := range implies {
			implies[i] = bitset.New(4).Set(uint(i))
		}

		finalized := func(build func(s *SafraState)) *SafraState {
			s := newSafraState(1)
			build(s)
			s.ungreenifyLastBrace()
			s.finalize()
			return s
		}
		states := []*SafraState{
			finalized(func(s *SafraState) {
				s.updateSucc([]int{0}, 1, true)
				s.updateSucc([]int{0}, 2, false)
				s.updateSucc(nil, 3, false)
			}),
			finalized(func(s *SafraState) {
				s.updateSucc([]int{0}, 1, true)
				s.updateSucc([]int{0}, 2, true)
			}),
			finalized(func(s *SafraState) {
				s.updateSucc([]int{0}, 0, true)
				s.updateSucc([]int{0}, 3, true)
				s.updateSucc([]int{0}, 2, false)
			}),
			newInitialSafraState(0, true),
		}
		for _, s := range states {
			// follow every state along a non-accepting self loop
			r := newSafraState(s.NumBraces())
			for _, q := range s.states() {
				p, _ := s.Path(q)
				r.updateSucc(p, q, false)
			}
			r.mergeRedundantStates(implies, scc)
			r.ungreenifyLastBrace()
			assert.Equal(t, noColor, r.finalize(), "%s", s)
			assert.True(t, r.Equals(s), "%s became %s", s, r)
			assert.Equal(t, s.braceCount, r.braceCount)
		}
	})

	t.Run("Inconsistent", func(t *testing.T) {
		s := &SafraState{
			nodes:         map[int][]int{1: {1, 0}},
			braceCount:    []int{1, 1},
			greenEligible: []bool{false, false},
		}
		assert.Panics(t, func() { s.finalize() })
	})
}

func TestSafraStateInitial(t *testing.T) {
	s := newInitialSafraState(3, true)
	assert.Equal(t, 1, s.NumStates())
	assert.Equal(t, 1, s.NumBraces())
	assert.Equal(t, noColor, s.Color())
	assert.Equal(t, "{₀3₀}", s.String())

	s = newInitialSafraState(3, false)
	assert.Equal(t, 0, s.NumBraces())
	assert.Equal(t, "3", s.String())
}

func TestSafraStateString(t *testing.T) {
	tests := []struct {
		nodes map[int][]int
		want  string
	}{
		{map[int][]int{2: {0}, 1: {0, 1}}, "{₀2{₁1₁}₀}"},
		{map[int][]int{1: {0}, 2: {0}}, "{₀1 2₀}"},
		{map[int][]int{1: {0, 1}, 2: {0, 2}}, "{₀{₁1₁}{₂2₂}₀}"},
		{map[int][]int{0: nil, 4: nil}, "0 4"},
		{map[int][]int{12: {0}}, "{₀12₀}"},
	}
	for _, tt := range tests {
		s := &SafraState{nodes: tt.nodes}
		assert.Equal(t, tt.want, s.String())
	}
	assert.Equal(t, "₁₀", subscript(10))
}

func TestSafraStateCompare(t *testing.T) {
	one := &SafraState{nodes: map[int][]int{1: {0}}}
	two := &SafraState{nodes: map[int][]int{1: {0}, 2: {0}}}
	other := &SafraState{nodes: map[int][]int{2: {0}}}
	nested := &SafraState{nodes: map[int][]int{1: {0, 1}}}

	assert.Equal(t, 0, one.Compare(one.clone()))
	assert.Equal(t, -1, one.Compare(two))
	assert.Equal(t, 1, two.Compare(one))
	assert.Equal(t, -1, one.Compare(other))
	assert.Equal(t, -1, one.Compare(nested))
	assert.False(t, one.Equals(nested))
	assert.False(t, one.Equals(pairKey{1, 0}))
}

func TestMergeRedundantStates(t *testing.T) {
	dict := newTestDict(t)
	a := buildAutomaton(t, dict, 3, Acceptance{1, Buchi()}, []edge{
		{0, 1, "a", nil},
		{0, 2, "a", nil},
		{1, 1, "1", []uint{0}},
		{2, 2, "a", []uint{0}},
	})
	implies, err := ComputeImplications(a)
	require.NoError(t, err)
	scc := NewSCCInfo(a)

	s := newSafraState(1)
	s.updateSucc([]int{0}, 1, false)
	s.updateSucc([]int{0}, 2, false)
	s.mergeRedundantStates(implies, scc)

	assert.Equal(t, 1, s.NumStates())
	_, ok := s.Path(1)
	assert.True(t, ok, "the simulating state is kept")
	assert.Equal(t, []int{1}, s.braceCount)

	t.Run("ReachableKept", func(t *testing.T) {
		// 1 implies 0, but 0 can still move to 1, so 1 is kept
		b := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
			{0, 0, "1", []uint{0}},
			{0, 1, "1", nil},
			{1, 1, "a", []uint{0}},
		})
		implies, err := ComputeImplications(b)
		require.NoError(t, err)
		require.True(t, implies[1].Test(0))

		s := newSafraState(1)
		s.updateSucc([]int{0}, 0, false)
		s.updateSucc([]int{0}, 1, false)
		s.mergeRedundantStates(implies, NewSCCInfo(b))
		assert.Equal(t, 2, s.NumStates())
	})
}

func TestSafraSuccessors(t *testing.T) {
	dict := newTestDict(t)
	a := buildAutomaton(t, dict, 3, Acceptance{1, Buchi()}, []edge{
		{0, 1, "a", []uint{0}},
		{0, 2, "a", nil},
		{1, 0, "1", nil},
		{2, 0, "1", nil},
	})
	ctx := &safraContext{
		aut:   a,
		dict:  dict,
		scc:   NewSCCInfo(a),
		cache: newPartitionCache(dict, nil),
	}
	pa, err := dict.Prop("a")
	require.NoError(t, err)

	init := newInitialSafraState(0, true)
	succs := ctx.successors(init)
	require.Len(t, succs, 2)

	assert.True(t, dict.Equal(pa, succs[0].cond))
	assert.Equal(t, "{₀2{₁1₁}₀}", succs[0].state.String())
	assert.Equal(t, noColor, succs[0].state.Color())

	assert.True(t, dict.Equal(dict.Not(pa), succs[1].cond))
	assert.Equal(t, 0, succs[1].state.NumStates())
	assert.Equal(t, 0, succs[1].state.Color(), "the root brace empties")

	back := ctx.successors(succs[0].state)
	require.Len(t, back, 1)
	assert.True(t, dict.IsTrue(back[0].cond))
	assert.True(t, back[0].state.Equals(init))
	assert.Equal(t, 1, back[0].state.Color())
}

func TestPartitionCache(t *testing.T) {
	dict := newTestDict(t)
	owner := new(int)
	va, err := dict.RegisterProposition("a", owner)
	require.NoError(t, err)
	vb, err := dict.RegisterProposition("b", owner)
	require.NoError(t, err)
	a, b := dict.Var(va), dict.Var(vb)

	c := newPartitionCache(dict, []int{va, vb})
	ia := c.intern(a)
	ib := c.intern(b)
	assert.Equal(t, ia, c.intern(dict.Not(dict.Not(a))))

	classes := c.partition([]int{ia, ib}, false)
	assert.Len(t, classes, 4)
	assert.True(t, dict.IsTrue(dict.Or(classes...)))

	classes = c.partition([]int{ia}, false)
	assert.Len(t, classes, 2)

	// minterms split the classes over every variable
	classes = c.partition([]int{ia}, true)
	assert.Len(t, classes, 4)
	assert.Len(t, c.classes, 3)

	assert.Len(t, c.partition(nil, false), 1)
}
