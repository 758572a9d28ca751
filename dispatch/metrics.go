package dispatch

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCalls         *prometheus.CounterVec
	prometheusCallDuration  *prometheus.HistogramVec
	prometheusTotalIssuance prometheus.Gauge

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tolledger",
			Name:      "calls_total",
			Help:      "Number of calls dispatched",
		},
		[]string{
			"kind",    // call kind
			"outcome", // applied, rejected or failed
		},
	)
	prometheusCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tolledger",
			Name:      "call_duration_seconds",
			Help:      "Time spent applying a call, including commit",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"kind"},
	)
	prometheusTotalIssuance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tolledger",
			Name:      "total_issuance",
			Help:      "Committed total issuance (approximate above 2^53)",
		},
	)
}
