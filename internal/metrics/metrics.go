package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tasksComputedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uvsim_tasks_computed_total",
			Help: "Total number of visibility tasks computed.",
		},
	)

	computeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "uvsim_compute_duration_seconds",
			Help:    "Per-task visibility computation time in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
	)

	workersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvsim_workers_active",
			Help: "Number of worker ranks currently running.",
		},
	)

	belowHorizonTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uvsim_below_horizon_total",
			Help: "Total number of tasks skipped because the source was below the horizon.",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksComputedTotal)
	prometheus.MustRegister(computeDurationSeconds)
	prometheus.MustRegister(workersActive)
	prometheus.MustRegister(belowHorizonTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCompute records one completed task computation.
func RecordCompute(d time.Duration) {
	tasksComputedTotal.Inc()
	computeDurationSeconds.Observe(d.Seconds())
}

// SetWorkersActive sets the active worker gauge.
func SetWorkersActive(n int) {
	workersActive.Set(float64(n))
}

// AddBelowHorizon counts a task whose source was below the horizon.
func AddBelowHorizon() {
	belowHorizonTotal.Inc()
}
