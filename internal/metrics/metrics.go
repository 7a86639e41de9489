// Package metrics holds Prometheus collectors for coverage runs
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postarit_runs_total",
		Help: "Total number of coverage runs by outcome",
	}, []string{"outcome"})
	RunDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "postarit_run_duration_ms",
		Help:    "Coverage run duration in milliseconds",
		Buckets: []float64{5, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	PostalAreasLoaded = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "postarit_postal_areas_loaded",
		Help:    "Number of postal areas loaded per run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	ResultsEmitted = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "postarit_results_emitted",
		Help:    "Number of qualifying postal areas per run",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
)

// MustRegister registers all collectors on r
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(RunsTotal, RunDurationMs, PostalAreasLoaded, ResultsEmitted)
}
