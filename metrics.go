package omega

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels of the runs counter.
const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics records determinization runs.
type Metrics struct {
	// RunsTotal counts runs by result ("ok" or "error").
	RunsTotal *prometheus.CounterVec

	// OutputStates observes the number of states of each result.
	OutputStates prometheus.Histogram

	// OutputTransitions observes the number of transitions of each result.
	OutputTransitions prometheus.Histogram

	// DurationSeconds observes the wall time of each run.
	DurationSeconds prometheus.Histogram
}

// NewMetrics registers the determinization metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "omega",
				Subsystem: "determinize",
				Name:      "runs_total",
				Help:      "Total determinization runs by result",
			},
			[]string{"result"},
		),
		OutputStates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "omega",
				Subsystem: "determinize",
				Name:      "output_states",
				Help:      "Number of states of the deterministic automata built",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		OutputTransitions: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "omega",
				Subsystem: "determinize",
				Name:      "output_transitions",
				Help:      "Number of transitions of the deterministic automata built",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		DurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "omega",
				Subsystem: "determinize",
				Name:      "duration_seconds",
				Help:      "Wall time of determinization runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) recordSuccess(res *Automaton, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(resultOK).Inc()
	m.OutputStates.Observe(float64(res.GetNumStates()))
	m.OutputTransitions.Observe(float64(res.GetNumTransitions()))
	m.DurationSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) recordError(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(resultError).Inc()
	m.DurationSeconds.Observe(elapsed.Seconds())
}
