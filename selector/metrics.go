package selector

import (
	"github.com/prometheus/client_golang/prometheus"
)

type runResult string

const (
	resultFavored     runResult = "favored"
	resultPool        runResult = "pool"
	resultExhausted   runResult = "exhausted"
	resultSourceError runResult = "source_error"
)

// Metrics contains the prometheus metrics for the selector. All
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	Attempts   prometheus.Counter
	Candidates *prometheus.CounterVec
	Runs       *prometheus.CounterVec
	PoolSize   prometheus.Gauge
	Commits    *prometheus.CounterVec
}

// NewMetrics creates and registers the selector metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mothmailer_selector_attempts_total",
			Help: "Pages requested from the candidate source",
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mothmailer_selector_candidates_total",
			Help: "Sampled records by filter outcome",
		}, []string{"outcome"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mothmailer_selector_runs_total",
			Help: "Selection runs by result",
		}, []string{"result"}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mothmailer_selector_pool_size",
			Help: "Candidates in the pool when the last selection finished sampling",
		}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mothmailer_commits_total",
			Help: "Commit attempts by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.Attempts,
		m.Candidates,
		m.Runs,
		m.PoolSize,
		m.Commits,
	)

	return m
}

func (m *Metrics) attempt() {
	if m == nil {
		return
	}
	m.Attempts.Inc()
}

func (m *Metrics) candidates(outcomes map[candidateOutcome]int) {
	if m == nil {
		return
	}
	for o, n := range outcomes {
		m.Candidates.WithLabelValues(string(o)).Add(float64(n))
	}
}

func (m *Metrics) run(r runResult) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(r)).Inc()
}

func (m *Metrics) poolSize(n int) {
	if m == nil {
		return
	}
	m.PoolSize.Set(float64(n))
}

func (m *Metrics) commit(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Commits.WithLabelValues(result).Inc()
}
