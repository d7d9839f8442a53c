package omega

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dalzilio/rudd"
	"golang.org/x/exp/maps"
)

// DefaultVarnum is the number of BDD variables of a Dict built without
// WithVarnum.
const DefaultVarnum = 64

var errStopAllsat = errors.New("stop")

// Label is a set of valuations of the atomic propositions of a Dict,
// represented by a BDD. The zero Label is not a valid value; obtain labels
// from a Dict.
type Label struct {
	node rudd.Node
}

// ID is the identifier of the underlying BDD node. Two labels of the same
// Dict are equal exactly when their IDs are.
func (l Label) ID() int {
	if l.node == nil {
		return -1
	}
	return *l.node
}

// Dict owns the BDD variables standing for atomic propositions. Automata that
// are combined must share one Dict. Registration is reference counted per
// owner: a variable is recycled only once no owner references its name.
//
// The number of variables is fixed when the Dict is created, see WithVarnum.
// Registration is safe for concurrent use; BDD operations are not.
type Dict struct {
	mu     sync.Mutex
	bdd    *rudd.BDD
	vars   map[string]int
	names  []string
	owners map[int]map[any]struct{}
	free   []int
}

type dictOptions struct {
	varnum   int
	nodesize int
}

type DictOption func(*dictOptions)

// WithVarnum sets how many propositions the Dict can hold at once.
func WithVarnum(n int) DictOption {
	return func(o *dictOptions) {
		o.varnum = n
	}
}

// WithNodesize sets the initial size of the BDD node table.
func WithNodesize(n int) DictOption {
	return func(o *dictOptions) {
		o.nodesize = n
	}
}

// NewDict returns an empty dictionary.
func NewDict(options ...DictOption) (*Dict, error) {
	opts := dictOptions{varnum: DefaultVarnum}
	for _, option := range options {
		option(&opts)
	}
	if opts.varnum <= 0 {
		return nil, fmt.Errorf("create bdd: invalid number of variables %d", opts.varnum)
	}
	var (
		bdd *rudd.BDD
		err error
	)
	if opts.nodesize > 0 {
		bdd, err = rudd.New(opts.varnum, rudd.Nodesize(opts.nodesize))
	} else {
		bdd, err = rudd.New(opts.varnum)
	}
	if err != nil {
		return nil, fmt.Errorf("create bdd: %w", err)
	}
	return &Dict{
		bdd:    bdd,
		vars:   make(map[string]int),
		owners: make(map[int]map[any]struct{}),
	}, nil
}

// Capacity is the number of propositions the Dict can hold at once.
func (d *Dict) Capacity() int {
	return d.bdd.Varnum()
}

// RegisterProposition returns the variable standing for name, allocating it
// when needed, and records owner as one of its users. It fails with
// ErrTooManyPropositions when every variable is in use.
func (d *Dict) RegisterProposition(name string, owner any) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.vars[name]
	if !ok {
		var err error
		if v, err = d.allocate(); err != nil {
			return -1, fmt.Errorf("register %q: %w", name, err)
		}
		d.vars[name] = v
		d.names[v] = name
	}
	if d.owners[v] == nil {
		d.owners[v] = make(map[any]struct{})
	}
	d.owners[v][owner] = struct{}{}
	return v, nil
}

func (d *Dict) allocate() (int, error) {
	if n := len(d.free); n > 0 {
		v := d.free[n-1]
		d.free = d.free[:n-1]
		return v, nil
	}
	v := len(d.names)
	if v >= d.bdd.Varnum() {
		return -1, fmt.Errorf("%w: all %d variables are in use", ErrTooManyPropositions, d.bdd.Varnum())
	}
	d.names = append(d.names, "")
	return v, nil
}

// UnregisterProposition drops owner from the users of name.
func (d *Dict) UnregisterProposition(name string, owner any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.vars[name]
	if !ok {
		return
	}
	d.release(v, owner)
}

// UnregisterAll drops owner from the users of every proposition.
func (d *Dict) UnregisterAll(owner any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, v := range maps.Values(d.vars) {
		d.release(v, owner)
	}
}

func (d *Dict) release(v int, owner any) {
	users := d.owners[v]
	if _, ok := users[owner]; !ok {
		return
	}
	delete(users, owner)
	if len(users) > 0 {
		return
	}
	delete(d.owners, v)
	delete(d.vars, d.names[v])
	d.names[v] = ""
	d.free = append(d.free, v)
}

// IsRegistered reports whether some owner references name.
func (d *Dict) IsRegistered(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.vars[name]
	return ok
}

// VarOf returns the variable of a registered proposition.
func (d *Dict) VarOf(name string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.vars[name]
	return v, ok
}

// NameOf returns the proposition held by variable v, "" if none.
func (d *Dict) NameOf(v int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v < 0 || v >= len(d.names) {
		return ""
	}
	return d.names[v]
}

// Propositions returns the registered proposition names, sorted.
func (d *Dict) Propositions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := maps.Keys(d.vars)
	sort.Strings(names)
	return names
}

func (d *Dict) wrap(n rudd.Node) Label {
	if n == nil {
		panic(fmt.Sprintf("omega: internal error: bdd: %s", d.bdd.Error()))
	}
	return Label{node: n}
}

func (d *Dict) True() Label  { return d.wrap(d.bdd.True()) }
func (d *Dict) False() Label { return d.wrap(d.bdd.False()) }

// Var returns the label where variable v holds.
func (d *Dict) Var(v int) Label { return d.wrap(d.bdd.Ithvar(v)) }

// NVar returns the label where variable v does not hold.
func (d *Dict) NVar(v int) Label { return d.wrap(d.bdd.NIthvar(v)) }

// Prop returns the label where the registered proposition name holds.
func (d *Dict) Prop(name string) (Label, error) {
	v, ok := d.VarOf(name)
	if !ok {
		return Label{}, fmt.Errorf("unknown atomic proposition %q", name)
	}
	return d.Var(v), nil
}

func (d *Dict) Not(l Label) Label { return d.wrap(d.bdd.Not(l.node)) }

func (d *Dict) And(ls ...Label) Label {
	res := d.bdd.True()
	for _, l := range ls {
		res = d.bdd.Apply(res, l.node, rudd.OPand)
	}
	return d.wrap(res)
}

func (d *Dict) Or(ls ...Label) Label {
	res := d.bdd.False()
	for _, l := range ls {
		res = d.bdd.Apply(res, l.node, rudd.OPor)
	}
	return d.wrap(res)
}

// Minus returns the valuations of a that are not in b.
func (d *Dict) Minus(a, b Label) Label {
	return d.wrap(d.bdd.Apply(a.node, d.bdd.Not(b.node), rudd.OPand))
}

// Implies reports whether every valuation of a is a valuation of b.
func (d *Dict) Implies(a, b Label) bool {
	return d.IsFalse(d.Minus(a, b))
}

// Disjoint reports whether a and b share no valuation.
func (d *Dict) Disjoint(a, b Label) bool {
	return d.IsFalse(d.And(a, b))
}

func (d *Dict) Equal(a, b Label) bool { return d.bdd.Equal(a.node, b.node) }

func (d *Dict) IsFalse(l Label) bool { return d.bdd.Equal(l.node, d.bdd.False()) }

func (d *Dict) IsTrue(l Label) bool { return d.bdd.Equal(l.node, d.bdd.True()) }

// Support returns the variables l depends on, sorted.
func (d *Dict) Support(l Label) []int {
	seen := make(map[int]struct{})
	err := d.bdd.Allnodes(func(id, level, low, high int) error {
		if id > 1 {
			seen[level] = struct{}{}
		}
		return nil
	}, l.node)
	if err != nil {
		panic(fmt.Sprintf("omega: internal error: bdd support: %v", err))
	}
	vars := maps.Keys(seen)
	sort.Ints(vars)
	return vars
}

// SatOneSet returns one minterm of l over vars: a conjunction mentioning
// every variable of vars, included in l. Variables left free by l are taken
// negatively. It returns false when l is empty.
func (d *Dict) SatOneSet(l Label, vars []int) (Label, bool) {
	if d.IsFalse(l) {
		return d.False(), false
	}
	var first []int
	err := d.bdd.Allsat(func(assignment []int) error {
		first = append([]int(nil), assignment...)
		return errStopAllsat
	}, l.node)
	if err != nil && !errors.Is(err, errStopAllsat) {
		panic(fmt.Sprintf("omega: internal error: bdd allsat: %v", err))
	}
	res := d.bdd.True()
	for _, v := range vars {
		if v < len(first) && first[v] == 1 {
			res = d.bdd.Apply(res, d.bdd.Ithvar(v), rudd.OPand)
		} else {
			res = d.bdd.Apply(res, d.bdd.NIthvar(v), rudd.OPand)
		}
	}
	return d.wrap(res), true
}

// Minterms splits l into its minterms over vars. vars must contain the
// support of l.
func (d *Dict) Minterms(l Label, vars []int) []Label {
	var res []Label
	for rest := l; ; {
		one, ok := d.SatOneSet(rest, vars)
		if !ok {
			return res
		}
		res = append(res, one)
		rest = d.Minus(rest, one)
	}
}

// Cube returns the conjunction fixing each named proposition to its value.
func (d *Dict) Cube(values map[string]bool) (Label, error) {
	res := d.True()
	for name, value := range values {
		p, err := d.Prop(name)
		if err != nil {
			return Label{}, err
		}
		if !value {
			p = d.Not(p)
		}
		res = d.And(res, p)
	}
	return res, nil
}

// Format renders l as a disjunction of cubes over proposition names, "1" and
// "0" standing for the constants.
func (d *Dict) Format(l Label) string {
	switch {
	case d.IsTrue(l):
		return "1"
	case d.IsFalse(l):
		return "0"
	}
	var cubes []string
	err := d.bdd.Allsat(func(assignment []int) error {
		var lits []string
		for v, value := range assignment {
			switch value {
			case 0:
				lits = append(lits, "!"+d.varName(v))
			case 1:
				lits = append(lits, d.varName(v))
			}
		}
		cubes = append(cubes, strings.Join(lits, " & "))
		return nil
	}, l.node)
	if err != nil {
		panic(fmt.Sprintf("omega: internal error: bdd allsat: %v", err))
	}
	if len(cubes) == 1 {
		return cubes[0]
	}
	for i, c := range cubes {
		if strings.Contains(c, " & ") {
			cubes[i] = "(" + c + ")"
		}
	}
	return strings.Join(cubes, " | ")
}

func (d *Dict) varName(v int) string {
	if name := d.NameOf(v); name != "" {
		return name
	}
	return fmt.Sprintf("v%d", v)
}
