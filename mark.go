package omega

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Mark is a set of acceptance sets carried by a transition. Marks are
// immutable: every operation returns a new value. The zero value is the
// empty mark.
type Mark struct {
	bits *bitset.BitSet
}

// NewMark returns the mark holding the given acceptance sets.
func NewMark(sets ...uint) Mark {
	if len(sets) == 0 {
		return Mark{}
	}
	b := bitset.New(0)
	for _, s := range sets {
		b.Set(s)
	}
	return Mark{bits: b}
}

func (m Mark) set() *bitset.BitSet {
	if m.bits == nil {
		return bitset.New(0)
	}
	return m.bits
}

// Has reports whether acceptance set s belongs to m.
func (m Mark) Has(s uint) bool {
	return m.bits != nil && m.bits.Test(s)
}

// Union returns m ∪ o.
func (m Mark) Union(o Mark) Mark {
	if o.IsEmpty() {
		return m
	}
	if m.IsEmpty() {
		return o
	}
	return Mark{bits: m.bits.Union(o.bits)}
}

// Intersect returns m ∩ o.
func (m Mark) Intersect(o Mark) Mark {
	if m.IsEmpty() || o.IsEmpty() {
		return Mark{}
	}
	return Mark{bits: m.bits.Intersection(o.bits)}
}

// Minus returns m \ o.
func (m Mark) Minus(o Mark) Mark {
	if m.IsEmpty() || o.IsEmpty() {
		return m
	}
	return Mark{bits: m.bits.Difference(o.bits)}
}

// Subset reports whether every set of m is also in o.
func (m Mark) Subset(o Mark) bool {
	if m.IsEmpty() {
		return true
	}
	return o.set().IsSuperSet(m.bits)
}

// Count returns the number of sets in m.
func (m Mark) Count() uint {
	if m.bits == nil {
		return 0
	}
	return m.bits.Count()
}

// IsEmpty reports whether m holds no set.
func (m Mark) IsEmpty() bool {
	return m.bits == nil || m.bits.None()
}

// Equal reports whether m and o hold the same sets. Unlike bitset.Equal the
// comparison ignores the capacity of the underlying bitsets.
func (m Mark) Equal(o Mark) bool {
	return m.Subset(o) && o.Subset(m)
}

// Max returns the highest set of m.
func (m Mark) Max() (uint, bool) {
	if m.IsEmpty() {
		return 0, false
	}
	var last uint
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		last = i
	}
	return last, true
}

// Sets returns the sets of m in increasing order.
func (m Mark) Sets() []uint {
	if m.IsEmpty() {
		return nil
	}
	res := make([]uint, 0, m.bits.Count())
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		res = append(res, i)
	}
	return res
}

// Restrict drops every set greater or equal to n.
func (m Mark) Restrict(n uint) Mark {
	if m.IsEmpty() {
		return m
	}
	if top, _ := m.Max(); top < n {
		return m
	}
	b := bitset.New(n)
	for i, ok := m.bits.NextSet(0); ok && i < n; i, ok = m.bits.NextSet(i + 1) {
		b.Set(i)
	}
	return Mark{bits: b}
}

func (m Mark) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, s := range m.Sets() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(s), 10))
	}
	sb.WriteByte('}')
	return sb.String()
}
