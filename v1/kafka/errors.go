package kafka

import "errors"

var (
	// ErrNotProducer is returned by Publish on a consumer client.
	ErrNotProducer = errors.New("kafka: client is not a producer")

	// ErrNotConsumer is reported when consuming from a producer client.
	ErrNotConsumer = errors.New("kafka: client is not a consumer")

	// ErrNoSerializer is returned by Publish when no serializer is set.
	ErrNoSerializer = errors.New("kafka: no serializer configured")

	// ErrNoDeserializer is carried by consumed messages when no deserializer is set.
	ErrNoDeserializer = errors.New("kafka: no deserializer configured")

	// ErrClientClosed is returned after GracefulShutdown.
	ErrClientClosed = errors.New("kafka: client is shut down")
)
