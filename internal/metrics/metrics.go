// Package metrics exposes Prometheus collectors for the permit engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	permitScansTotal    *prometheus.CounterVec
	claimConflictsTotal prometheus.Counter
	postsTotal          *prometheus.CounterVec
	scanActiveWorkers   prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times.
func Init() {
	once.Do(func() {
		permitScansTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permit_scans_total",
				Help: "Total RSN scan outcomes, labeled by scrape status.",
			},
			[]string{"status"},
		)

		claimConflictsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "permit_claim_conflicts_total",
				Help: "Total claim attempts lost to another worker.",
			},
		)

		postsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permit_posts_total",
				Help: "Total publication attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scanActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "permit_scan_active_workers",
				Help: "Number of scan workers currently processing an RSN.",
			},
		)
	})
}

// ObserveScan records one per-RSN transition outcome.
func ObserveScan(status string) {
	if permitScansTotal == nil {
		return
	}
	permitScansTotal.WithLabelValues(status).Inc()
}

// ObserveClaimConflict records one lost claim race.
func ObserveClaimConflict() {
	if claimConflictsTotal == nil {
		return
	}
	claimConflictsTotal.Inc()
}

// ObservePost records one publication attempt outcome
// (posted, duplicate, error, skipped).
func ObservePost(outcome string) {
	if postsTotal == nil {
		return
	}
	postsTotal.WithLabelValues(outcome).Inc()
}

// WorkerStarted increments the active-worker gauge.
func WorkerStarted() {
	if scanActiveWorkers == nil {
		return
	}
	scanActiveWorkers.Inc()
}

// WorkerStopped decrements the active-worker gauge.
func WorkerStopped() {
	if scanActiveWorkers == nil {
		return
	}
	scanActiveWorkers.Dec()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
