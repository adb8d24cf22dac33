package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus registry, the HTTP server exposing it and the
// operation metrics fed by the observability hook of the other packages.
type Metrics struct {
	// Server serves the registry on /metrics.
	Server *http.Server

	// Registry is the isolated Prometheus registry of this service.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadBytes      *prometheus.HistogramVec
}

// NewMetrics creates a dedicated registry wrapped with a constant "service"
// label, registers the operation metrics and, when enabled, the default Go
// collectors, and prepares the /metrics HTTP server.
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "transfer-service",
//	})
//	go m.Server.ListenAndServe()
//
//	ser, _ := serde.NewSerializer(cfg, registry, serde.WithObserver(m))
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrapped,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "operations_total",
		"Total number of completed operations by component, operation and status",
		[]string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "operation_duration_seconds",
		"Duration of completed operations in seconds",
		[]string{"component", "operation"}, prometheus.DefBuckets)
	m.payloadBytes = createHistogramVec(cfg.Namespace, "payload_bytes",
		"Size of encoded payloads in bytes",
		[]string{"component", "operation"}, prometheus.ExponentialBuckets(64, 4, 8))

	wrapped.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.payloadBytes,
	)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
