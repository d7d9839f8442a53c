package omega

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// AcceptanceKind selects the acceptance condition of determinized automata.
type AcceptanceKind int

const (
	// ParityMinOdd accepts when the smallest color seen infinitely often is
	// odd.
	ParityMinOdd = AcceptanceKind(iota)
	// ParityMinEven accepts when the smallest color seen infinitely often is
	// even.
	ParityMinEven
	// Rabin uses one pair per brace: Fin(2k+1) & Inf(2k).
	Rabin
)

var acceptanceKindNames = map[AcceptanceKind]string{
	ParityMinOdd:  "parity-min-odd",
	ParityMinEven: "parity-min-even",
	Rabin:         "rabin",
}

func (k AcceptanceKind) String() string {
	if name, ok := acceptanceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AcceptanceKind(%d)", int(k))
}

// ParseAcceptanceKind is the inverse of String.
func ParseAcceptanceKind(name string) (AcceptanceKind, error) {
	for k, n := range acceptanceKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown acceptance kind %q", name)
}

func (k *AcceptanceKind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseAcceptanceKind(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

func (k AcceptanceKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Options of Determinize.
type Options struct {
	// Attach a rendering of each Safra tree as the "state-names" property.
	PrettyPrint bool `yaml:"pretty_print"`

	// Close braces when leaving a strongly connected component.
	SCCOptimization bool `yaml:"scc_optimization"`

	// Drop tracked states whose language is included in the one of another
	// tracked state.
	Simulation bool `yaml:"simulation"`

	// Merge bisimilar states of the result.
	Bisimulation bool `yaml:"bisimulation"`

	// Collapse repetitions of a letter when the input is stutter invariant.
	Stutter bool `yaml:"stutter"`

	// Add a rejecting sink so that the result is complete.
	Complete bool `yaml:"complete"`

	Acceptance AcceptanceKind `yaml:"acceptance"`

	// Maximal number of states of the result, 0 for no limit.
	MaxStates int `yaml:"max_states"`

	Logger  *slog.Logger `yaml:"-"`
	Metrics *Metrics     `yaml:"-"`
}

// DefaultOptions enables every reduction that preserves the result's
// shape: SCC optimization, simulation and stutter collapsing.
func DefaultOptions() Options {
	return Options{
		SCCOptimization: true,
		Simulation:      true,
		Stutter:         true,
		Acceptance:      ParityMinOdd,
	}
}

type Option func(opts *Options)

func WithPrettyPrint(enabled bool) Option {
	return func(opts *Options) {
		opts.PrettyPrint = enabled
	}
}

func WithSCCOptimization(enabled bool) Option {
	return func(opts *Options) {
		opts.SCCOptimization = enabled
	}
}

func WithSimulation(enabled bool) Option {
	return func(opts *Options) {
		opts.Simulation = enabled
	}
}

func WithBisimulation(enabled bool) Option {
	return func(opts *Options) {
		opts.Bisimulation = enabled
	}
}

func WithStutter(enabled bool) Option {
	return func(opts *Options) {
		opts.Stutter = enabled
	}
}

func WithComplete(enabled bool) Option {
	return func(opts *Options) {
		opts.Complete = enabled
	}
}

func WithAcceptance(kind AcceptanceKind) Option {
	return func(opts *Options) {
		opts.Acceptance = kind
	}
}

func WithMaxStates(n int) Option {
	return func(opts *Options) {
		opts.MaxStates = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(opts *Options) {
		opts.Metrics = metrics
	}
}

// WithOptions replaces every setting but the logger and the metrics by the
// ones of o, typically loaded with LoadOptions.
func WithOptions(o Options) Option {
	return func(opts *Options) {
		logger, metrics := opts.Logger, opts.Metrics
		*opts = o
		if opts.Logger == nil {
			opts.Logger = logger
		}
		if opts.Metrics == nil {
			opts.Metrics = metrics
		}
	}
}

func newOptions(options ...Option) *Options {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &opts
}

// LoadOptions reads options from YAML. Missing fields keep their default
// value; unknown fields are rejected.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		if err == io.EOF {
			return opts, nil
		}
		return Options{}, fmt.Errorf("decode options: %w", err)
	}
	if opts.MaxStates < 0 {
		return Options{}, fmt.Errorf("max_states must not be negative, got %d", opts.MaxStates)
	}
	if _, ok := acceptanceKindNames[opts.Acceptance]; !ok {
		return Options{}, fmt.Errorf("unknown acceptance kind %d", int(opts.Acceptance))
	}
	return opts, nil
}
