package omega

import (
	"fmt"
	"strconv"
	"strings"
)

type AccOp int

const (
	ACC_TRUE  = AccOp(iota) // Always satisfied
	ACC_FALSE               // Never satisfied
	ACC_INF                 // Set visited infinitely often
	ACC_FIN                 // Set visited finitely often
	ACC_AND                 // Conjunction of sub-formulas
	ACC_OR                  // Disjunction of sub-formulas
)

// AccCode is a positive Boolean formula over Inf and Fin predicates on
// acceptance sets. Values are immutable and safe to share.
type AccCode struct {
	op   AccOp
	set  uint
	args []AccCode
}

func AccTrue() AccCode  { return AccCode{op: ACC_TRUE} }
func AccFalse() AccCode { return AccCode{op: ACC_FALSE} }

// Inf is satisfied when set s is visited infinitely often.
func Inf(s uint) AccCode { return AccCode{op: ACC_INF, set: s} }

// Fin is satisfied when set s is visited finitely often.
func Fin(s uint) AccCode { return AccCode{op: ACC_FIN, set: s} }

func (c AccCode) Op() AccOp { return c.op }

func (c AccCode) IsTrue() bool  { return c.op == ACC_TRUE }
func (c AccCode) IsFalse() bool { return c.op == ACC_FALSE }

// And returns c ∧ o, simplifying constants and flattening conjunctions.
func (c AccCode) And(o AccCode) AccCode {
	switch {
	case c.op == ACC_FALSE || o.op == ACC_FALSE:
		return AccFalse()
	case c.op == ACC_TRUE:
		return o
	case o.op == ACC_TRUE:
		return c
	}
	args := make([]AccCode, 0, 2)
	args = appendFlat(args, c, ACC_AND)
	args = appendFlat(args, o, ACC_AND)
	return AccCode{op: ACC_AND, args: args}
}

// Or returns c ∨ o, simplifying constants and flattening disjunctions.
func (c AccCode) Or(o AccCode) AccCode {
	switch {
	case c.op == ACC_TRUE || o.op == ACC_TRUE:
		return AccTrue()
	case c.op == ACC_FALSE:
		return o
	case o.op == ACC_FALSE:
		return c
	}
	args := make([]AccCode, 0, 2)
	args = appendFlat(args, c, ACC_OR)
	args = appendFlat(args, o, ACC_OR)
	return AccCode{op: ACC_OR, args: args}
}

func appendFlat(args []AccCode, c AccCode, op AccOp) []AccCode {
	if c.op == op {
		return append(args, c.args...)
	}
	return append(args, c)
}

// Complement returns the formula accepting exactly the runs c rejects.
func (c AccCode) Complement() AccCode {
	switch c.op {
	case ACC_TRUE:
		return AccFalse()
	case ACC_FALSE:
		return AccTrue()
	case ACC_INF:
		return Fin(c.set)
	case ACC_FIN:
		return Inf(c.set)
	}
	res := AccFalse()
	if c.op == ACC_OR {
		res = AccTrue()
	}
	for _, arg := range c.args {
		if c.op == ACC_AND {
			res = res.Or(arg.Complement())
		} else {
			res = res.And(arg.Complement())
		}
	}
	return res
}

// Accepting evaluates c for a run whose transitions visit exactly the sets
// of inf infinitely often.
func (c AccCode) Accepting(inf Mark) bool {
	switch c.op {
	case ACC_TRUE:
		return true
	case ACC_FALSE:
		return false
	case ACC_INF:
		return inf.Has(c.set)
	case ACC_FIN:
		return !inf.Has(c.set)
	case ACC_AND:
		for _, arg := range c.args {
			if !arg.Accepting(inf) {
				return false
			}
		}
		return true
	default:
		for _, arg := range c.args {
			if arg.Accepting(inf) {
				return true
			}
		}
		return false
	}
}

// HasFin reports whether some Fin predicate occurs in c.
func (c AccCode) HasFin() bool {
	if c.op == ACC_FIN {
		return true
	}
	for _, arg := range c.args {
		if arg.HasFin() {
			return true
		}
	}
	return false
}

// UsedSets returns every acceptance set mentioned by c.
func (c AccCode) UsedSets() Mark {
	switch c.op {
	case ACC_INF, ACC_FIN:
		return NewMark(c.set)
	}
	var res Mark
	for _, arg := range c.args {
		res = res.Union(arg.UsedSets())
	}
	return res
}

// Equal is structural equality.
func (c AccCode) Equal(o AccCode) bool {
	if c.op != o.op || c.set != o.set || len(c.args) != len(o.args) {
		return false
	}
	for i := range c.args {
		if !c.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// IsGeneralizedBuchi returns n when c is Inf(0) & ... & Inf(n-1), t being
// the case n = 0.
func (c AccCode) IsGeneralizedBuchi() (uint, bool) {
	switch c.op {
	case ACC_TRUE:
		return 0, true
	case ACC_INF:
		return 1, c.set == 0
	case ACC_AND:
		for i, arg := range c.args {
			if arg.op != ACC_INF || arg.set != uint(i) {
				return 0, false
			}
		}
		return uint(len(c.args)), true
	}
	return 0, false
}

// IsParity reports whether c is one of the four parity conditions over n
// sets, and which one.
func (c AccCode) IsParity(n uint) (max, odd, ok bool) {
	for _, max := range []bool{false, true} {
		for _, odd := range []bool{false, true} {
			if c.Equal(Parity(max, odd, n)) {
				return max, odd, true
			}
		}
	}
	return false, false, false
}

func (c AccCode) String() string {
	switch c.op {
	case ACC_TRUE:
		return "t"
	case ACC_FALSE:
		return "f"
	case ACC_INF:
		return "Inf(" + strconv.FormatUint(uint64(c.set), 10) + ")"
	case ACC_FIN:
		return "Fin(" + strconv.FormatUint(uint64(c.set), 10) + ")"
	}
	sep, nested := " & ", ACC_OR
	if c.op == ACC_OR {
		sep, nested = " | ", ACC_AND
	}
	parts := make([]string, len(c.args))
	for i, arg := range c.args {
		if arg.op == nested {
			parts[i] = "(" + arg.String() + ")"
		} else {
			parts[i] = arg.String()
		}
	}
	return strings.Join(parts, sep)
}

// GeneralizedBuchi returns Inf(0) & ... & Inf(n-1).
func GeneralizedBuchi(n uint) AccCode {
	res := AccTrue()
	for i := uint(0); i < n; i++ {
		res = res.And(Inf(i))
	}
	return res
}

func Buchi() AccCode {
	return Inf(0)
}

// Parity builds the parity condition over n sets. The formula is assembled
// from the last set to the first, so that "parity min even 3" reads
// Inf(0) | (Fin(1) & Inf(2)).
func Parity(max, odd bool, n uint) AccCode {
	var res AccCode
	if max {
		res = boolCode(odd)
	} else {
		res = boolCode((n&1 == 1) == odd)
	}
	if n == 0 {
		return res
	}
	start, end, inc := int(n)-1, -1, -1
	if max {
		start, end, inc = 0, int(n), 1
	}
	for i := start; i != end; i += inc {
		if (i&1 == 1) == odd {
			res = Inf(uint(i)).Or(res)
		} else {
			res = Fin(uint(i)).And(res)
		}
	}
	return res
}

// RabinPairs returns the disjunction of n pairs, pair k being
// Fin(2k+1) & Inf(2k): the odd set is the red set and the even one the green
// set of the pair.
func RabinPairs(n uint) AccCode {
	res := AccFalse()
	for k := uint(0); k < n; k++ {
		res = res.Or(Fin(2*k + 1).And(Inf(2 * k)))
	}
	return res
}

func boolCode(b bool) AccCode {
	if b {
		return AccTrue()
	}
	return AccFalse()
}

// Acceptance is an acceptance formula together with the number of sets
// transitions may carry.
type Acceptance struct {
	NumSets uint
	Code    AccCode
}

// Name returns the conventional name of the condition, or "" when it has
// none.
func (a Acceptance) Name() string {
	switch {
	case a.Code.IsTrue():
		return "all"
	case a.Code.IsFalse():
		return "none"
	}
	if n, ok := a.Code.IsGeneralizedBuchi(); ok {
		if n == 1 {
			return "Buchi"
		}
		return fmt.Sprintf("generalized-Buchi %d", n)
	}
	if max, odd, ok := a.Code.IsParity(a.NumSets); ok {
		minmax, oddeven := "min", "even"
		if max {
			minmax = "max"
		}
		if odd {
			oddeven = "odd"
		}
		return fmt.Sprintf("parity %s %s %d", minmax, oddeven, a.NumSets)
	}
	if a.NumSets%2 == 0 && a.Code.Equal(RabinPairs(a.NumSets/2)) {
		return fmt.Sprintf("Rabin %d", a.NumSets/2)
	}
	return ""
}

func (a Acceptance) String() string {
	return fmt.Sprintf("%d %s", a.NumSets, a.Code)
}
