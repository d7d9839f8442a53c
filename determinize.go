package omega

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Determinize builds a deterministic automaton recognizing the language of
// a, which must use a generalized Büchi condition (t included). The result
// has a parity or Rabin condition, see WithAcceptance.
//
// The construction follows Safra trees: every state of the result is a
// SafraState over the transition-based Büchi automaton obtained by
// degeneralizing a. Either the whole automaton is returned or an error,
// never a partial result.
func Determinize(a *Automaton, options ...Option) (*Automaton, error) {
	opts := newOptions(options...)
	logger := opts.Logger.With("component", "determinize")

	start := time.Now()
	res, err := determinize(a, opts, logger)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("determinization failed", "error", err, "duration", elapsed)
		opts.Metrics.recordError(elapsed)
		return nil, err
	}

	logger.Debug("determinization done",
		"states", res.GetNumStates(),
		"transitions", res.GetNumTransitions(),
		"acceptance", res.Acceptance().String(),
		"duration", elapsed)
	opts.Metrics.recordSuccess(res, elapsed)
	return res, nil
}

type pendingEdge struct {
	src, dst int
	cond     Label
	color    int
}

func determinize(a *Automaton, opts *Options, logger *slog.Logger) (*Automaton, error) {
	if a.GetNumStates() == 0 {
		return nil, ErrNoInitialState
	}
	if _, ok := a.Acceptance().Code.IsGeneralizedBuchi(); !ok {
		return nil, fmt.Errorf("%w: determinization expects generalized Büchi, got %s",
			ErrUnsupportedAcceptance, a.Acceptance())
	}
	if _, ok := acceptanceKindNames[opts.Acceptance]; !ok {
		return nil, fmt.Errorf("%w: unknown acceptance kind %d", ErrUnsupportedAcceptance, int(opts.Acceptance))
	}

	logger.Debug("determinization started",
		"states", a.GetNumStates(),
		"transitions", a.GetNumTransitions(),
		"acceptance", a.Acceptance().String(),
		"scc_optimization", opts.SCCOptimization,
		"simulation", opts.Simulation,
		"stutter", opts.Stutter,
		"encoding", opts.Acceptance.String())

	tba, err := DegeneralizeTBA(a)
	if err != nil {
		return nil, err
	}
	var implies []*bitset.BitSet
	if opts.Simulation {
		if tba, err = RemoveUselessStates(tba); err != nil {
			return nil, err
		}
		if implies, err = ComputeImplications(tba); err != nil {
			return nil, err
		}
	}
	scc := NewSCCInfo(tba)

	useStutter := opts.Stutter && tba.PropStutterInvariant() == Yes
	var vars []int
	if useStutter {
		vars = supportOf(tba)
	}
	ctx := &safraContext{
		aut:           tba,
		dict:          tba.Dict(),
		scc:           scc,
		implies:       implies,
		cache:         newPartitionCache(tba.Dict(), vars),
		useSCC:        opts.SCCOptimization,
		useSimulation: opts.Simulation,
		useStutter:    useStutter,
	}

	res := NewAutomaton(a.Dict())
	res.registerAPs(a.aps)

	init := tba.GetInitialState()
	accepting := !opts.SCCOptimization || scc.IsAccepting(scc.SCCOf(init))
	initial := newInitialSafraState(init, accepting)

	seen := NewHashMap[int](WithCapacity(64))
	seen.Set(initial, res.CreateState())
	todo := []*SafraState{initial}
	var edges []pendingEdge

	for i := 0; i < len(todo); i++ {
		cur := todo[i]
		src, _ := seen.Get(cur)
		for _, succ := range ctx.successors(cur) {
			// No sink: Complete handles missing letters.
			if succ.state.NumStates() == 0 {
				continue
			}
			dst, ok := seen.Get(succ.state)
			if !ok {
				dst = res.CreateState()
				if opts.MaxStates > 0 && res.GetNumStates() > opts.MaxStates {
					return nil, fmt.Errorf("%w: more than %d states", ErrTooComplexToDeterminize, opts.MaxStates)
				}
				seen.Set(succ.state, dst)
				todo = append(todo, succ.state)
				if n := res.GetNumStates(); n%1000 == 0 {
					logger.Debug("determinization progress", "states", n, "pending", len(todo)-i-1)
				}
			}
			edges = append(edges, pendingEdge{src: src, dst: dst, cond: succ.cond, color: succ.state.color})
		}
	}

	enc := newColorEncoding(opts.Acceptance, edges)
	acc := enc.acceptance()
	res.SetAcceptance(acc.NumSets, acc.Code)
	for _, e := range edges {
		if err := res.AddTransition(e.src, e.dst, e.cond, enc.mark(e.color)); err != nil {
			return nil, err
		}
	}
	res.SetPropDeterministic(Yes)
	res.SetPropStutterInvariant(a.PropStutterInvariant())

	if opts.PrettyPrint {
		names := make([]string, len(todo))
		for _, s := range todo {
			id, _ := seen.Get(s)
			names[id] = s.String()
		}
		res.SetNamedProp(PropStateNames, names)
	}

	if opts.Bisimulation {
		if res, err = ReduceBisimulation(res); err != nil {
			return nil, err
		}
	}
	if opts.Complete {
		if res, err = Complete(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// supportOf returns the variables used by the labels of a, sorted.
func supportOf(a *Automaton) []int {
	dict := a.Dict()
	seen := make(map[int]struct{})
	var vars []int
	for _, t := range a.AllTransitions() {
		for _, v := range dict.Support(t.Cond) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				vars = append(vars, v)
			}
		}
	}
	slices.Sort(vars)
	return vars
}

// colorEncoding turns the priorities emitted by finalize into marks of the
// requested condition. Only braces up to the highest one that ever turned
// green matter: a red above it cannot hide any green.
type colorEncoding struct {
	kind AcceptanceKind
	// Number of braces that matter, the highest green brace plus one.
	pairs int
}

func newColorEncoding(kind AcceptanceKind, edges []pendingEdge) colorEncoding {
	enc := colorEncoding{kind: kind}
	for _, e := range edges {
		if e.color != noColor && e.color%2 == 1 {
			enc.pairs = max(enc.pairs, (e.color-1)/2+1)
		}
	}
	return enc
}

func (enc colorEncoding) acceptance() Acceptance {
	if enc.pairs == 0 {
		return Acceptance{Code: AccFalse()}
	}
	switch enc.kind {
	case ParityMinEven:
		n := uint(2*enc.pairs + 1)
		return Acceptance{NumSets: n, Code: Parity(false, false, n)}
	case Rabin:
		return Acceptance{NumSets: uint(2 * enc.pairs), Code: RabinPairs(uint(enc.pairs))}
	default:
		n := uint(2 * enc.pairs)
		return Acceptance{NumSets: n, Code: Parity(false, true, n)}
	}
}

func (enc colorEncoding) mark(color int) Mark {
	if color == noColor || enc.pairs == 0 {
		return Mark{}
	}
	switch enc.kind {
	case ParityMinEven:
		if color+1 < 2*enc.pairs+1 {
			return NewMark(uint(color + 1))
		}
		return Mark{}
	case Rabin:
		brace := color / 2
		var sets []uint
		if color%2 == 1 {
			sets = append(sets, uint(2*brace))
			brace++
		}
		for k := brace; k < enc.pairs; k++ {
			sets = append(sets, uint(2*k+1))
		}
		return NewMark(sets...)
	default:
		if color < 2*enc.pairs {
			return NewMark(uint(color))
		}
		return Mark{}
	}
}
