// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run results.
const (
	RunOK    = "ok"
	RunFatal = "fatal"
)

// Pipeline holds the ingestion collectors. A nil *Pipeline is a no-op.
type Pipeline struct {
	runs     *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPipeline registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Pipeline{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recording_ingestion",
			Name:      "runs_total",
			Help:      "Batch runs by result (ok, fatal).",
		}, []string{"result"}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recording_ingestion",
			Name:      "results_total",
			Help:      "Per-lesson ingestion outcomes.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recording_ingestion",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of batch runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// ObserveRun records one finished run.
func (p *Pipeline) ObserveRun(result string, d time.Duration) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(result).Inc()
	p.duration.Observe(d.Seconds())
}

// ObserveOutcome counts one per-lesson outcome.
func (p *Pipeline) ObserveOutcome(outcome string) {
	if p == nil {
		return
	}
	p.results.WithLabelValues(outcome).Inc()
}
