// Package metrics exposes Prometheus metrics for services built on the
// kafka, serde and schema_registry packages.
//
// *Metrics owns an isolated registry, labelled with the service name, and an
// HTTP server serving it on /metrics. It implements observability.Observer:
// attach it to a Serializer, Deserializer, registry Client or kafka Client and
// every operation they report is counted and timed.
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "transfer-service",
//	    EnableDefaultCollectors: true,
//	})
//	go m.Server.ListenAndServe()
//
//	client, _ := schema_registry.NewClient(cfg)
//	client.WithObserver(m)
//	ser, _ := serde.NewSerializer(serdeCfg, client, serde.WithObserver(m))
//
// Exposed series:
//
//	operations_total{component, operation, status}   counter, status is success or error
//	operation_duration_seconds{component, operation} histogram
//	payload_bytes{component, operation}              histogram of encoded sizes
//
// Application specific metrics are created with CreateCounter,
// CreateHistogram and CreateGauge; they are registered with the same service
// label and namespace.
//
// # FX Module Integration
//
// FXModule provides *Metrics, MetricsCollector and observability.Observer and
// starts and stops the HTTP server with the application.
package metrics
