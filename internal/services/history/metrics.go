package history

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives per-request measurements from the service.
type MetricsCollector interface {
	RecordRequest(result string, duration time.Duration)
	RecordRecords(kind string, count int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordRequest(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordRecords(string, int)           {}

// PrometheusMetrics exports history metrics through a Prometheus registry.
type PrometheusMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhistory",
			Name:      "history_requests_total",
			Help:      "History lookups by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finhistory",
			Name:      "history_request_duration_seconds",
			Help:      "Time spent assembling a history envelope.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhistory",
			Name:      "history_records_returned_total",
			Help:      "Records returned in history envelopes by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requests, m.duration, m.records)
	return m
}

func (m *PrometheusMetrics) RecordRequest(result string, duration time.Duration) {
	m.requests.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRecords(kind string, count int) {
	m.records.WithLabelValues(kind).Add(float64(count))
}
