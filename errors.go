package omega

import "errors"

var (
	ErrNoInitialState          = errors.New("automaton has no initial state")
	ErrUnknownState            = errors.New("unknown state")
	ErrUnsupportedAcceptance   = errors.New("unsupported acceptance condition")
	ErrDictMismatch            = errors.New("automata do not share the same dictionary")
	ErrTooManyPropositions     = errors.New("dictionary has no free variable")
	ErrNotDeterministic        = errors.New("automaton is not deterministic")
	ErrTooComplexToDeterminize = errors.New("determinization exceeds the state limit")
)

func internalError(format string) string {
	return "omega: internal error: " + format
}
