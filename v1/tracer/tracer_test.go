package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return &Tracer{
		provider:   tp,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		logger:     nopLogger{},
	}, recorder
}

func TestNewClientWithoutExport(t *testing.T) {
	tr, err := NewClient(Config{ServiceName: "svc", AppEnv: "test"}, nil)
	require.NoError(t, err)
	require.NoError(t, tr.Shutdown(context.Background()))
}

func TestSpanLifecycle(t *testing.T) {
	tr, recorder := newRecordingTracer(t)

	_, span := tr.StartSpan(context.Background(), "kafka.publish")
	tr.SetAttributes(span, map[string]interface{}{
		"topic":     "acct-events",
		"partition": 3,
		"offset":    int64(17),
		"ratio":     0.5,
		"retry":     false,
		"schema":    struct{ ID int }{42},
	})
	tr.RecordErrorOnSpan(span, errors.New("broker unavailable"))
	tr.RecordErrorOnSpan(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "kafka.publish", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "broker unavailable", ended[0].Status().Description)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "acct-events", attrs["topic"].AsString())
	assert.Equal(t, int64(3), attrs["partition"].AsInt64())
	assert.Equal(t, int64(17), attrs["offset"].AsInt64())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.False(t, attrs["retry"].AsBool())
	assert.Equal(t, "{42}", attrs["schema"].AsString())
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, recorder := newRecordingTracer(t)

	ctx, parent := tr.StartSpan(context.Background(), "kafka.publish")
	carrier := tr.GetCarrier(ctx)
	parent.End()
	require.Contains(t, carrier, "traceparent")

	remote := tr.SetCarrierOnContext(context.Background(), carrier)
	_, child := tr.StartSpan(remote, "kafka.consume")
	child.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[0].SpanContext().TraceID(), ended[1].SpanContext().TraceID())
	assert.Equal(t, ended[0].SpanContext().SpanID(), ended[1].Parent().SpanID())
}

func TestShutdownNil(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
