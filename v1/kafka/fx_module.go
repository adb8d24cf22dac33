package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/qslv/common-kafka/v1/envelope"
	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/serde"
	"github.com/qslv/common-kafka/v1/tracer"
)

// FXModule provides a *KafkaClient wired with whatever serde, tracing, trace
// logging and observability components the application provides, and shuts
// it down when the application stops.
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    serde.FXModule,
//	    tracer.FXModule,
//	    kafka.FXModule,
//	    fx.Provide(func() kafka.Config {
//	        return kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "acct-events"}
//	    }),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies of NewClientWithDI.
type KafkaParams struct {
	fx.In

	Config       Config
	Serializer   *serde.Serializer      `optional:"true"`
	Deserializer *serde.Deserializer    `optional:"true"`
	Tracer       *tracer.Tracer         `optional:"true"`
	TraceLogger  *envelope.TraceLogger  `optional:"true"`
	Logger       Logger                 `optional:"true"`
	Observer     observability.Observer `optional:"true"`
}

// NewClientWithDI creates a KafkaClient from injected dependencies.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}

	client.WithLogger(params.Logger).
		WithObserver(params.Observer).
		WithTracer(params.Tracer).
		WithTraceLogger(params.TraceLogger)
	if params.Serializer != nil {
		client.WithSerializer(params.Serializer)
	}
	if params.Deserializer != nil {
		client.WithDeserializer(params.Deserializer)
	}
	return client, nil
}

// KafkaLifecycleParams groups the dependencies of RegisterKafkaLifecycle.
type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *KafkaClient
}

// RegisterKafkaLifecycle closes the client when the application stops.
func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return params.Client.GracefulShutdown()
		},
	})
}
