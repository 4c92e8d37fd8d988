// Package metrics exposes Prometheus counters for the phase controller and
// the verification pipeline. A nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "postdoc"

// Metrics holds all collectors registered by New
type Metrics struct {
	turns        *prometheus.CounterVec
	handlerRuns  *prometheus.CounterVec
	importProbes *prometheus.CounterVec
	probeSeconds prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Controller turns, by the phase the turn started in.",
		}, []string{"phase"}),
		handlerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_runs_total",
			Help:      "Phase handler executions, by handler and outcome.",
		}, []string{"handler", "outcome"}),
		importProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_probes_total",
			Help:      "Isolated import probes, by result (ok, missing, failed, timeout).",
		}, []string{"result"}),
		probeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_probe_seconds",
			Help:      "Wall time of a single import probe.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.turns, m.handlerRuns, m.importProbes, m.probeSeconds)
	}
	return m
}

// Turn counts one controller turn
func (m *Metrics) Turn(phase string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(phase).Inc()
}

// HandlerRun counts one handler execution
func (m *Metrics) HandlerRun(handler, outcome string) {
	if m == nil {
		return
	}
	m.handlerRuns.WithLabelValues(handler, outcome).Inc()
}

// ImportProbe records one probe result and its duration
func (m *Metrics) ImportProbe(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.importProbes.WithLabelValues(result).Inc()
	m.probeSeconds.Observe(d.Seconds())
}

// Collectors returns every collector, for tests and custom registries
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.turns, m.handlerRuns, m.importProbes, m.probeSeconds}
}
