// Package kafka provides a Kafka client that publishes and consumes typed
// values through the serde package.
//
// A KafkaClient is bound to one topic and is either a producer or, with
// Config.IsConsumer, a consumer. It is built on segmentio/kafka-go and
// supports TLS, SASL (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512) and producer
// compression (gzip, snappy, lz4, zstd).
//
// Basic Usage:
//
//	registry, _ := schema_registry.NewClient(schema_registry.Config{URL: "http://localhost:8081"})
//	ser, _ := serde.NewSerializer(serde.Config{}, registry)
//
//	producer, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		Topic:   "acct-events",
//	})
//	if err != nil {
//		return err
//	}
//	defer producer.GracefulShutdown()
//	producer.WithSerializer(ser)
//
//	err = producer.Publish(ctx, "A-1", &AccountOpened{AccountID: "A-1"}, nil)
//
// Consuming:
//
//	types := serde.NewTypeRegistry()
//	serde.RegisterType[AccountOpened](types)
//	de, _ := serde.NewDeserializer(serde.Config{}, registry, serde.WithTypes(types))
//
//	consumer, _ := kafka.NewClient(kafka.Config{
//		Brokers:    []string{"localhost:9092"},
//		Topic:      "acct-events",
//		GroupID:    "ledger",
//		IsConsumer: true,
//	})
//	consumer.WithDeserializer(de)
//
//	wg := &sync.WaitGroup{}
//	for msg := range consumer.Consume(ctx, wg) {
//		if msg.Err() != nil {
//			// undecodable: log, dead-letter or skip
//		}
//		opened := msg.Value().(*AccountOpened)
//		// ...
//		if err := msg.CommitMsg(); err != nil {
//			log.Error("Failed to commit message", err, nil)
//		}
//	}
//
// ConsumeParallel decodes on several workers for high volume topics.
//
// Tracing:
//
// With WithTracer, Publish starts a "kafka.publish" span and writes its W3C
// trace context into the message headers; every consumed message gets a
// "kafka.consume" span joined to the producer's trace, and Message.Context
// carries it to the handler. With WithTraceLogger, every consumed value that
// implements envelope.Traceable produces a TRACE log line.
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		schema_registry.FXModule,
//		serde.FXModule,
//		kafka.FXModule,
//	)
//
// The Kafka module uses the serializer, deserializer, tracer, trace logger,
// logger and observer if they are available in the container.
//
// Thread Safety:
//
// Publish may be called concurrently. GracefulShutdown may be called more
// than once.
package kafka
