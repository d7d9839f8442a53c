package omega

import (
	"fmt"
	"iter"
	"strings"
)

// Trival is a property value that may be unknown.
type Trival int8

const (
	Maybe = Trival(iota)
	No
	Yes
)

func TrivalOf(b bool) Trival {
	if b {
		return Yes
	}
	return No
}

// Named properties understood by this package.
const (
	// PropStateNames holds a []string naming each state.
	PropStateNames = "state-names"
)

// Transition of an automaton. Cond is the set of valuations enabling the
// transition and Acc the acceptance sets it belongs to.
type Transition struct {
	Source int
	Dest   int
	Cond   Label
	Acc    Mark
}

// Automaton is a transition-based omega-automaton whose transitions are
// labeled by Boolean formulas over atomic propositions. States are integers
// created with CreateState; the initial state is 0 unless SetInitialState
// says otherwise. Transitions may be added in any order.
type Automaton struct {
	dict *Dict

	// Registered atomic propositions, in registration order.
	aps []string

	// For each state, the indexes of its outgoing transitions in
	// transitions.
	states [][]int

	transitions []Transition

	initial int

	acc Acceptance

	deterministic    Trival
	stutterInvariant Trival

	namedProps map[string]any
}

// NewAutomaton returns an empty automaton over dict with acceptance t.
func NewAutomaton(dict *Dict) *Automaton {
	return &Automaton{
		dict:       dict,
		acc:        Acceptance{Code: AccTrue()},
		namedProps: make(map[string]any),
	}
}

func (a *Automaton) Dict() *Dict {
	return a.dict
}

// RegisterAP registers the atomic proposition name for this automaton and
// returns the label where it holds.
func (a *Automaton) RegisterAP(name string) (Label, error) {
	v, err := a.dict.RegisterProposition(name, a)
	if err != nil {
		return Label{}, err
	}
	for _, ap := range a.aps {
		if ap == name {
			return a.dict.Var(v), nil
		}
	}
	a.aps = append(a.aps, name)
	return a.dict.Var(v), nil
}

// APs returns the atomic propositions registered by this automaton.
func (a *Automaton) APs() []string {
	return append([]string(nil), a.aps...)
}

// CopyAPs registers the propositions of other for a. Both automata must
// share their dictionary.
func (a *Automaton) CopyAPs(other *Automaton) error {
	if a.dict != other.dict {
		return ErrDictMismatch
	}
	a.registerAPs(other.aps)
	return nil
}

// registerAPs takes over propositions another automaton of the same Dict
// holds. They already own a variable, so no allocation can fail.
func (a *Automaton) registerAPs(aps []string) {
	for _, ap := range aps {
		if _, err := a.RegisterAP(ap); err != nil {
			panic(internalError(err.Error()))
		}
	}
}

// APVars returns the dictionary variables of the registered propositions,
// sorted.
func (a *Automaton) APVars() []int {
	vars := make([]int, 0, len(a.aps))
	for _, ap := range a.aps {
		if v, ok := a.dict.VarOf(ap); ok {
			vars = append(vars, v)
		}
	}
	sortInts(vars)
	return vars
}

// Release drops every proposition registration held by the automaton.
func (a *Automaton) Release() {
	a.dict.UnregisterAll(a)
	a.aps = nil
}

// CreateState Create a new state.
func (a *Automaton) CreateState() int {
	state := len(a.states)
	a.states = append(a.states, nil)
	return state
}

// CreateStates creates n states and returns the first one.
func (a *Automaton) CreateStates(n int) int {
	first := len(a.states)
	a.states = grow(a.states, first+n)
	return first
}

// GetNumStates How many states this automaton has.
func (a *Automaton) GetNumStates() int {
	return len(a.states)
}

// GetNumTransitions How many transitions this automaton has.
func (a *Automaton) GetNumTransitions() int {
	return len(a.transitions)
}

// GetNumTransitionsWithState How many transitions leave this state.
func (a *Automaton) GetNumTransitionsWithState(state int) int {
	return len(a.states[state])
}

func (a *Automaton) SetInitialState(state int) error {
	if err := a.checkState(state); err != nil {
		return err
	}
	a.initial = state
	return nil
}

func (a *Automaton) GetInitialState() int {
	return a.initial
}

func (a *Automaton) checkState(state int) error {
	if state < 0 || state >= len(a.states) {
		return fmt.Errorf("%w: %d (automaton has %d states)", ErrUnknownState, state, len(a.states))
	}
	return nil
}

// AddTransition Add a new transition from source to dest enabled by cond and
// belonging to the acceptance sets of acc.
func (a *Automaton) AddTransition(source, dest int, cond Label, acc Mark) error {
	if err := a.checkState(source); err != nil {
		return err
	}
	if err := a.checkState(dest); err != nil {
		return err
	}
	a.states[source] = append(a.states[source], len(a.transitions))
	a.transitions = append(a.transitions, Transition{
		Source: source,
		Dest:   dest,
		Cond:   cond,
		Acc:    acc,
	})
	a.deterministic = Maybe
	return nil
}

// Transitions iterates over the transitions leaving state, in insertion
// order.
func (a *Automaton) Transitions(state int) iter.Seq[*Transition] {
	return func(yield func(*Transition) bool) {
		for _, idx := range a.states[state] {
			if !yield(&a.transitions[idx]) {
				return
			}
		}
	}
}

// AllTransitions iterates over every transition with its index.
func (a *Automaton) AllTransitions() iter.Seq2[int, *Transition] {
	return func(yield func(int, *Transition) bool) {
		for i := range a.transitions {
			if !yield(i, &a.transitions[i]) {
				return
			}
		}
	}
}

func (a *Automaton) SetAcceptance(numSets uint, code AccCode) {
	a.acc = Acceptance{NumSets: numSets, Code: code}
}

func (a *Automaton) Acceptance() Acceptance {
	return a.acc
}

// PropDeterministic is Yes when the automaton is known to be deterministic.
func (a *Automaton) PropDeterministic() Trival {
	return a.deterministic
}

func (a *Automaton) SetPropDeterministic(v Trival) {
	a.deterministic = v
}

// PropStutterInvariant is Yes when the language of the automaton is known to
// be insensitive to the repetition of letters.
func (a *Automaton) PropStutterInvariant() Trival {
	return a.stutterInvariant
}

func (a *Automaton) SetPropStutterInvariant(v Trival) {
	a.stutterInvariant = v
}

func (a *Automaton) SetNamedProp(name string, value any) {
	if value == nil {
		delete(a.namedProps, name)
		return
	}
	a.namedProps[name] = value
}

func (a *Automaton) NamedProp(name string) any {
	return a.namedProps[name]
}

// StateNames returns the names stored under PropStateNames, or nil.
func (a *Automaton) StateNames() []string {
	names, _ := a.namedProps[PropStateNames].([]string)
	return names
}

// String renders the automaton for debugging.
func (a *Automaton) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "states: %d, initial: %d, acceptance: %s\n", a.GetNumStates(), a.initial, a.acc)
	names := a.StateNames()
	for s := range a.states {
		if s < len(names) {
			fmt.Fprintf(&sb, "%d %q\n", s, names[s])
		} else {
			fmt.Fprintf(&sb, "%d\n", s)
		}
		for t := range a.Transitions(s) {
			fmt.Fprintf(&sb, "  [%s] %d", a.dict.Format(t.Cond), t.Dest)
			if !t.Acc.IsEmpty() {
				sb.WriteString(" " + t.Acc.String())
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
