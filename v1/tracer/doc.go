// Package tracer provides distributed tracing with OpenTelemetry.
//
// NewClient installs a TracerProvider (optionally exporting over OTLP HTTP)
// and the W3C trace context propagator. The kafka package uses a Tracer to
// start a span per published or consumed message and to carry the trace
// context in message headers:
//
//	// producer side
//	ctx, span := t.StartSpan(ctx, "kafka.publish")
//	defer span.End()
//	for k, v := range t.GetCarrier(ctx) {
//	    headers[k] = v
//	}
//
//	// consumer side
//	ctx = t.SetCarrierOnContext(ctx, headers)
//	ctx, span := t.StartSpan(ctx, "kafka.consume")
//	defer span.End()
//
// Errors are recorded with RecordErrorOnSpan, attributes with SetAttributes.
// The logger package reads the active span from the context to add trace_id
// and span_id to log entries.
package tracer
