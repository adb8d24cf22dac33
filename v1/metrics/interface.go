package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qslv/common-kafka/v1/observability"
)

// MetricsCollector is the contract implemented by *Metrics: an
// observability.Observer plus factories for application specific metrics.
type MetricsCollector interface {
	observability.Observer

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
