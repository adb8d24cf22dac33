package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Tracer wraps an OpenTelemetry TracerProvider with helpers for spans and
// for carrying trace context through message headers.
//
// The Tracer is safe for concurrent use.
type Tracer struct {
	provider   *trace.TracerProvider
	propagator propagation.TextMapPropagator
	logger     Logger
}

// NewClient creates a Tracer and installs it as the global OpenTelemetry
// tracer provider and propagator.
//
// When cfg.EnableExport is set, spans are batched to an OTLP HTTP exporter;
// an exporter that cannot be created fails construction.
//
//	t, err := tracer.NewClient(tracer.Config{
//	    ServiceName:  "transfer-service",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	}, log)
//	ctx, span := t.StartSpan(ctx, "kafka.publish")
//	defer span.End()
func NewClient(cfg Config, logger Logger) (*Tracer, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	var options []trace.TracerProviderOption
	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}

		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			logger.ErrorWithContext(context.Background(), "cannot initiate tracer", err, nil)
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := trace.NewTracerProvider(options...)
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)

	logger.InfoWithContext(context.Background(), "tracer initialized", nil, map[string]interface{}{
		"service": cfg.ServiceName,
		"export":  cfg.EnableExport,
	})

	return &Tracer{provider: tp, propagator: propagator, logger: logger}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
