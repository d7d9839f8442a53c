package omega

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccCodeString(t *testing.T) {
	tests := []struct {
		name string
		code AccCode
		want string
	}{
		{"true", AccTrue(), "t"},
		{"false", AccFalse(), "f"},
		{"buchi", Buchi(), "Inf(0)"},
		{"generalized", GeneralizedBuchi(3), "Inf(0) & Inf(1) & Inf(2)"},
		{"parity min odd 2", Parity(false, true, 2), "Fin(0) & Inf(1)"},
		{"parity min even 3", Parity(false, false, 3), "Inf(0) | (Fin(1) & Inf(2))"},
		{"parity min odd 4", Parity(false, true, 4), "Fin(0) & (Inf(1) | (Fin(2) & Inf(3)))"},
		{"parity max even 2", Parity(true, false, 2), "Fin(1) & Inf(0)"},
		{"rabin 1", RabinPairs(1), "Fin(1) & Inf(0)"},
		{"rabin 2", RabinPairs(2), "(Fin(1) & Inf(0)) | (Fin(3) & Inf(2))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.String())
		})
	}
}

func TestAccCodeSimplification(t *testing.T) {
	assert.True(t, Inf(0).And(AccFalse()).IsFalse())
	assert.True(t, Inf(0).Or(AccTrue()).IsTrue())
	assert.True(t, AccTrue().And(Fin(1)).Equal(Fin(1)))
	assert.True(t, AccFalse().Or(Fin(1)).Equal(Fin(1)))

	// nested conjunctions are flattened
	code := Inf(0).And(Inf(1)).And(Inf(2))
	assert.Equal(t, "Inf(0) & Inf(1) & Inf(2)", code.String())
	assert.Equal(t, ACC_AND, code.Op())
}

func TestAccCodeAccepting(t *testing.T) {
	parity := Parity(false, true, 4)
	tests := []struct {
		inf  Mark
		want bool
	}{
		{Mark{}, false},
		{NewMark(0), false},
		{NewMark(1), true},
		{NewMark(0, 1), false},
		{NewMark(1, 2), true},
		{NewMark(2), false},
		{NewMark(3), true},
		{NewMark(2, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.inf.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, parity.Accepting(tt.inf))
			assert.Equal(t, !tt.want, parity.Complement().Accepting(tt.inf))
		})
	}
}

func TestAccCodeQueries(t *testing.T) {
	n, ok := GeneralizedBuchi(2).IsGeneralizedBuchi()
	assert.True(t, ok)
	assert.Equal(t, uint(2), n)

	n, ok = AccTrue().IsGeneralizedBuchi()
	assert.True(t, ok)
	assert.Equal(t, uint(0), n)

	_, ok = Inf(1).IsGeneralizedBuchi()
	assert.False(t, ok)
	_, ok = Fin(0).IsGeneralizedBuchi()
	assert.False(t, ok)

	assert.True(t, RabinPairs(2).HasFin())
	assert.False(t, GeneralizedBuchi(3).HasFin())
	assert.Equal(t, []uint{0, 1, 2, 3}, RabinPairs(2).UsedSets().Sets())

	max, odd, ok := Parity(false, true, 4).IsParity(4)
	assert.True(t, ok)
	assert.False(t, max)
	assert.True(t, odd)
}

func TestAcceptanceName(t *testing.T) {
	tests := []struct {
		acc  Acceptance
		want string
	}{
		{Acceptance{0, AccTrue()}, "all"},
		{Acceptance{0, AccFalse()}, "none"},
		{Acceptance{1, Buchi()}, "Buchi"},
		{Acceptance{2, GeneralizedBuchi(2)}, "generalized-Buchi 2"},
		{Acceptance{4, Parity(false, true, 4)}, "parity min odd 4"},
		{Acceptance{3, Parity(false, false, 3)}, "parity min even 3"},
		{Acceptance{4, RabinPairs(2)}, "Rabin 2"},
		{Acceptance{2, Fin(0).Or(Fin(1))}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.acc.Name())
		})
	}
}
