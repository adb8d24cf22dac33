package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/qslv/common-kafka/v1/observability"
)

// FXModule provides *Metrics, the MetricsCollector interface and an
// observability.Observer backed by the same instance, and runs the /metrics
// server for the lifetime of the application.
//
// Because the Observer is provided here, serde, schema_registry and kafka
// pick it up automatically when their modules are in the same application:
//
//	app := fx.New(
//	    metrics.FXModule,
//	    fx.Provide(func() metrics.Config {
//	        return metrics.Config{Address: ":9090", ServiceName: "transfer-service"}
//	    }),
//	    serde.FXModule,
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) MetricsCollector { return m },
		func(m *Metrics) observability.Observer { return m },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// MetricsLifecycleParams groups the dependencies of RegisterMetricsLifecycle.
type MetricsLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   *Metrics
	Logger    Logger `optional:"true"`
}

// RegisterMetricsLifecycle starts the metrics server in the background on
// start and shuts it down gracefully on stop.
func RegisterMetricsLifecycle(params MetricsLifecycleParams) {
	log := params.Logger
	if log == nil {
		log = nopLogger{}
	}
	m := params.Metrics

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.InfoWithContext(context.Background(), "Starting Prometheus metrics server", nil, map[string]interface{}{
					"address": m.Server.Addr,
				})
				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.ErrorWithContext(context.Background(), "Error starting Prometheus metrics server", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.InfoWithContext(ctx, "Shutting down Prometheus metrics server", nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
