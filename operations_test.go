package omega

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDeterministic(t *testing.T) {
	dict := newTestDict(t)
	det := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
		{0, 1, "a", nil},
		{0, 0, "!a", nil},
		{1, 1, "1", []uint{0}},
	})
	assert.True(t, IsDeterministic(det))
	assert.True(t, IsComplete(det))

	nondet := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
		{0, 1, "a", nil},
		{0, 0, "1", nil},
	})
	assert.False(t, IsDeterministic(nondet))
	assert.False(t, IsComplete(nondet))
	assert.False(t, IsComplete(NewAutomaton(dict)))
}

func TestIsEmpty(t *testing.T) {
	dict := newTestDict(t)

	a := buildAutomaton(t, dict, 3, Acceptance{1, Buchi()}, []edge{
		{0, 1, "a", nil},
		{1, 1, "1", nil},
		{2, 2, "1", []uint{0}},
	})
	empty, err := IsEmpty(a)
	require.NoError(t, err)
	assert.True(t, empty, "the accepting loop is unreachable")

	require.NoError(t, a.AddTransition(1, 2, dict.True(), Mark{}))
	empty, err = IsEmpty(a)
	require.NoError(t, err)
	assert.False(t, empty)

	fin := buildAutomaton(t, dict, 1, Acceptance{2, RabinPairs(1)}, []edge{{0, 0, "1", nil}})
	_, err = IsEmpty(fin)
	assert.ErrorIs(t, err, ErrUnsupportedAcceptance)
}

func TestComplete(t *testing.T) {
	dict := newTestDict(t)

	t.Run("AddsSink", func(t *testing.T) {
		a := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
			{0, 1, "a", nil},
			{1, 1, "1", []uint{0}},
		})
		res, err := Complete(a)
		require.NoError(t, err)
		assert.Equal(t, 3, res.GetNumStates())
		assert.Equal(t, 4, res.GetNumTransitions())
		assert.True(t, IsComplete(res))
		assert.Equal(t, Yes, res.PropDeterministic())
		assert.Equal(t, "Inf(0)", res.Acceptance().Code.String())
		// the input is left alone
		assert.Equal(t, 2, a.GetNumStates())

		for tr := range res.Transitions(2) {
			assert.Equal(t, 2, tr.Dest)
			assert.True(t, tr.Acc.IsEmpty())
		}
	})

	t.Run("AlreadyComplete", func(t *testing.T) {
		a := buildAutomaton(t, dict, 1, Acceptance{1, Buchi()}, []edge{{0, 0, "1", []uint{0}}})
		res, err := Complete(a)
		require.NoError(t, err)
		assert.NotSame(t, a, res)
		assert.Equal(t, 1, res.GetNumStates())
	})

	t.Run("RejectingSink", func(t *testing.T) {
		a := buildAutomaton(t, dict, 1, Acceptance{0, AccTrue()}, []edge{{0, 0, "a", nil}})
		res, err := Complete(a)
		require.NoError(t, err)
		assert.Equal(t, uint(1), res.Acceptance().NumSets)
		assert.Equal(t, "Inf(0)", res.Acceptance().Code.String())

		letters, err := Letters(dict, []string{"a"})
		require.NoError(t, err)
		ok, err := Run(res, Word{Cycle: letters[:1]})
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = Run(res, Word{Cycle: letters[1:]})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("NoStates", func(t *testing.T) {
		_, err := Complete(NewAutomaton(dict))
		assert.ErrorIs(t, err, ErrNoInitialState)
	})
}

func TestComplement(t *testing.T) {
	dict := newTestDict(t)
	// GF a
	a := buildAutomaton(t, dict, 1, Acceptance{1, Buchi()}, []edge{
		{0, 0, "a", []uint{0}},
		{0, 0, "!a", nil},
	})
	res, err := Complement(a)
	require.NoError(t, err)
	assert.Equal(t, "Fin(0)", res.Acceptance().Code.String())

	letters, err := Letters(dict, []string{"a"})
	require.NoError(t, err)
	pa, na := letters[0], letters[1]

	tests := []struct {
		name string
		word Word
		want bool
	}{
		{"always a", Word{Cycle: []Label{pa}}, false},
		{"eventually never a", Word{Prefix: []Label{pa}, Cycle: []Label{na}}, true},
		{"alternating", Word{Cycle: []Label{pa, na}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Run(res, tt.word)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	nondet := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
		{0, 0, "1", nil},
		{0, 1, "a", nil},
	})
	_, err = Complement(nondet)
	assert.ErrorIs(t, err, ErrNotDeterministic)
}

func TestRemoveUselessStates(t *testing.T) {
	dict := newTestDict(t)

	t.Run("Prunes", func(t *testing.T) {
		a := buildAutomaton(t, dict, 4, Acceptance{1, Buchi()}, []edge{
			{0, 1, "a", []uint{0}},
			{0, 2, "!a", nil},
			{1, 1, "1", []uint{0}},
			{2, 2, "1", nil},
			{3, 1, "1", nil},
		})
		res, err := RemoveUselessStates(a)
		require.NoError(t, err)
		assert.Equal(t, 2, res.GetNumStates())
		assert.Equal(t, 2, res.GetNumTransitions())

		for tr := range res.Transitions(0) {
			assert.Equal(t, 1, tr.Dest)
			assert.True(t, tr.Acc.IsEmpty(), "marks between components are dropped")
		}
		for tr := range res.Transitions(1) {
			assert.True(t, tr.Acc.Has(0))
		}
	})

	t.Run("EmptyLanguage", func(t *testing.T) {
		a := buildAutomaton(t, dict, 2, Acceptance{1, Buchi()}, []edge{
			{0, 1, "1", nil},
			{1, 1, "1", nil},
		})
		res, err := RemoveUselessStates(a)
		require.NoError(t, err)
		assert.Equal(t, 1, res.GetNumStates())
		assert.Equal(t, 0, res.GetNumTransitions())
	})

	t.Run("Fin", func(t *testing.T) {
		a := buildAutomaton(t, dict, 1, Acceptance{1, Fin(0)}, []edge{{0, 0, "1", nil}})
		_, err := RemoveUselessStates(a)
		assert.ErrorIs(t, err, ErrUnsupportedAcceptance)
	})
}
