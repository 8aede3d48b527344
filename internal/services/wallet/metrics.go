package wallet

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordPosting(string, string, int64)           {}
func (n *NoopMetricsCollector) RecordReplay(string, string)                   {}
func (n *NoopMetricsCollector) RecordVoid(string)                             {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
func (n *NoopMetricsCollector) RecordCacheHit()                               {}
func (n *NoopMetricsCollector) RecordCacheMiss()                              {}

// PrometheusMetrics exports ledger activity under the tripwallet_ledger_* names.
type PrometheusMetrics struct {
	postings  *prometheus.CounterVec
	volume    *prometheus.CounterVec
	replays   *prometheus.CounterVec
	voids     *prometheus.CounterVec
	errors    *prometheus.CounterVec
	cache     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	f := promauto.With(reg)
	return &PrometheusMetrics{
		postings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "postings_total",
			Help:      "Wallet transactions posted, by type and direction",
		}, []string{"type", "direction"}),
		volume: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "posted_amount_total",
			Help:      "Sum of posted amounts in minor units, by direction",
		}, []string{"direction"}),
		replays: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "replays_total",
			Help:      "Requests answered from an existing transaction for the same idempotency key",
		}, []string{"operation", "type"}),
		voids: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "voids_total",
			Help:      "Transactions voided, by type",
		}, []string{"type"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "errors_total",
			Help:      "Failed ledger operations, by error code",
		}, []string{"operation", "code"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "balance_cache_lookups_total",
			Help:      "Balance cache lookups, by result",
		}, []string{"result"}),
		durations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tripwallet",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *PrometheusMetrics) RecordOperationDuration(operation string, d time.Duration) {
	m.durations.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordPosting(txType, direction string, amount int64) {
	m.postings.WithLabelValues(txType, direction).Inc()
	m.volume.WithLabelValues(direction).Add(float64(amount))
}

func (m *PrometheusMetrics) RecordReplay(operation, txType string) {
	m.replays.WithLabelValues(operation, txType).Inc()
}

func (m *PrometheusMetrics) RecordVoid(txType string) {
	m.voids.WithLabelValues(txType).Inc()
}

func (m *PrometheusMetrics) RecordError(operation, code string) {
	m.errors.WithLabelValues(operation, code).Inc()
}

func (m *PrometheusMetrics) RecordCacheHit()  { m.cache.WithLabelValues("hit").Inc() }
func (m *PrometheusMetrics) RecordCacheMiss() { m.cache.WithLabelValues("miss").Inc() }
