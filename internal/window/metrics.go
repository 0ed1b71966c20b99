package window

import "github.com/prometheus/client_golang/prometheus"

// Fetch results used as the "result" label.
const (
	resultMerged    = "merged"
	resultFailed    = "failed"
	resultMalformed = "malformed"
	resultStale     = "stale"
)

var (
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sqwerl",
			Subsystem: "loader",
			Name:      "fetches_total",
			Help:      "Settled page fetches by result",
		},
		[]string{"result"},
	)

	scheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sqwerl",
			Subsystem: "loader",
			Name:      "scheduled_total",
			Help:      "Range requests that armed the scheduler",
		},
	)

	dedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sqwerl",
			Subsystem: "loader",
			Name:      "deduped_total",
			Help:      "Range requests suppressed because their window was already in flight",
		},
	)

	inflightFetches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sqwerl",
			Subsystem: "loader",
			Name:      "inflight_fetches",
			Help:      "Page fetches currently in flight",
		},
	)

	fetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sqwerl",
			Subsystem: "loader",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(fetchesTotal, scheduledTotal, dedupedTotal, inflightFetches, fetchDuration)
}
