package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/qslv/common-kafka/v1/envelope"
	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/schema_registry"
	"github.com/qslv/common-kafka/v1/serde"
	"github.com/qslv/common-kafka/v1/tracer"
)

type Transfer struct {
	From   string `avro:"from"`
	To     string `avro:"to"`
	Amount int64  `avro:"amount"`
}

// broker is an in-memory topic shared by fakeWriter and fakeReader.
type broker struct {
	mu        sync.Mutex
	messages  chan kafka.Message
	committed []int64
	offset    int64
	closed    chan struct{}
	failNext  error
	failAfter time.Duration
}

func newBroker() *broker {
	return &broker{messages: make(chan kafka.Message, 64), closed: make(chan struct{})}
}

type fakeWriter struct {
	b     *broker
	topic string
	err   error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	for _, m := range msgs {
		m.Topic = w.topic
		m.Offset = w.b.offset
		w.b.offset++
		w.b.messages <- m
	}
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	b *broker
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return r.FetchMessage(ctx)
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.b.mu.Lock()
	if err := r.b.failNext; err != nil {
		r.b.failNext = nil
		delay := r.b.failAfter
		r.b.mu.Unlock()
		time.Sleep(delay)
		return kafka.Message{}, err
	}
	r.b.mu.Unlock()

	select {
	case m := <-r.b.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-r.b.closed:
		return kafka.Message{}, io.EOF
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	for _, m := range msgs {
		r.b.committed = append(r.b.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	close(r.b.closed)
	return nil
}

func newProducer(b *broker, cfg Config) *KafkaClient {
	cfg = cfg.withDefaults()
	return &KafkaClient{
		cfg:            cfg,
		writer:         &fakeWriter{b: b, topic: cfg.Topic},
		logger:         nopLogger{},
		shutdownSignal: make(chan struct{}),
	}
}

func newConsumer(b *broker, cfg Config) *KafkaClient {
	cfg.IsConsumer = true
	cfg = cfg.withDefaults()
	return &KafkaClient{
		cfg:            cfg,
		reader:         &fakeReader{b: b},
		logger:         nopLogger{},
		shutdownSignal: make(chan struct{}),
	}
}

func newSerde(t *testing.T) (*serde.Serializer, *serde.Deserializer) {
	t.Helper()
	registry := schema_registry.NewMemoryRegistry(1)

	ser, err := serde.NewSerializer(serde.Config{}, registry)
	require.NoError(t, err)

	types := serde.NewTypeRegistry()
	serde.RegisterType[Transfer](types)
	serde.RegisterType[envelope.TraceableMessage[Transfer]](types)
	de, err := serde.NewDeserializer(serde.Config{}, registry, serde.WithTypes(types))
	require.NoError(t, err)
	return ser, de
}

func receive(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.ops))
	for _, op := range o.ops {
		names = append(names, op.Component+"."+op.Operation)
	}
	return names
}

func TestPublishConsumeRoundTrip(t *testing.T) {
	b := newBroker()
	ser, de := newSerde(t)
	obs := &recordingObserver{}

	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser).WithObserver(obs)
	consumer := newConsumer(b, Config{Topic: "transfers"}).WithDeserializer(de).WithObserver(obs)

	in := &Transfer{From: "a", To: "b", Amount: 250}
	require.NoError(t, producer.Publish(context.Background(), "a", in, map[string]string{"source": "test"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}
	msg := receive(t, consumer.Consume(ctx, wg))

	require.NoError(t, msg.Err())
	assert.Equal(t, in, msg.Value())
	assert.Equal(t, "a", msg.Key())
	assert.Equal(t, "transfers", msg.Topic())
	assert.Equal(t, "test", msg.Header()["source"])
	assert.Equal(t, byte(0x0), msg.Body()[0])

	require.NoError(t, msg.CommitMsg())
	assert.Equal(t, []int64{0}, b.committed)

	cancel()
	wg.Wait()
	assert.Equal(t, []string{"kafka.publish", "kafka.consume"}, obs.operations())
}

func TestPublishRequiresSerializerAndWriter(t *testing.T) {
	b := newBroker()

	producer := newProducer(b, Config{Topic: "transfers"})
	assert.ErrorIs(t, producer.Publish(context.Background(), "k", &Transfer{}, nil), ErrNoSerializer)

	consumer := newConsumer(b, Config{Topic: "transfers"})
	assert.ErrorIs(t, consumer.Publish(context.Background(), "k", &Transfer{}, nil), ErrNotProducer)
}

func TestPublishWriterError(t *testing.T) {
	b := newBroker()
	ser, _ := newSerde(t)
	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser)
	producer.writer = &fakeWriter{b: b, err: errors.New("leader not available")}

	err := producer.Publish(context.Background(), "k", &Transfer{Amount: 1}, nil)
	assert.EqualError(t, err, "leader not available")
}

func TestPublishSerializationErrorIsReturned(t *testing.T) {
	b := newBroker()
	ser, _ := newSerde(t)
	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser)

	err := producer.Publish(context.Background(), "k", struct{ C chan int }{}, nil)
	require.Error(t, err)
	assert.Empty(t, b.messages)
}

func TestUndecodableMessageIsDeliveredWithError(t *testing.T) {
	b := newBroker()
	_, de := newSerde(t)
	b.messages <- kafka.Message{Topic: "transfers", Value: []byte{0x1, 0, 0, 0, 1}}

	consumer := newConsumer(b, Config{Topic: "transfers"}).WithDeserializer(de)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	msg := receive(t, consumer.Consume(ctx, wg))
	require.Error(t, msg.Err())
	assert.True(t, serde.IsFormatError(msg.Err()))
	assert.Nil(t, msg.Value())
}

func TestConsumeWithoutDeserializer(t *testing.T) {
	b := newBroker()
	b.messages <- kafka.Message{Topic: "transfers", Value: []byte("x")}

	consumer := newConsumer(b, Config{Topic: "transfers"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := receive(t, consumer.Consume(ctx, &sync.WaitGroup{}))
	assert.ErrorIs(t, msg.Err(), ErrNoDeserializer)
}

func TestConsumeRetriesAfterFetchError(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = time.Millisecond
	defer func() { fetchRetryDelay = old }()

	b := newBroker()
	ser, de := newSerde(t)
	b.failNext = errors.New("coordinator not available")

	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser)
	require.NoError(t, producer.Publish(context.Background(), "k", &Transfer{Amount: 7}, nil))

	consumer := newConsumer(b, Config{Topic: "transfers"}).WithDeserializer(de)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := receive(t, consumer.Consume(ctx, &sync.WaitGroup{}))
	require.NoError(t, msg.Err())
	assert.Equal(t, int64(7), msg.Value().(*Transfer).Amount)
}

func TestFetchErrorReportsFetchDuration(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = time.Millisecond
	defer func() { fetchRetryDelay = old }()

	b := newBroker()
	ser, de := newSerde(t)
	b.failNext = errors.New("coordinator not available")
	b.failAfter = 20 * time.Millisecond

	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser)
	require.NoError(t, producer.Publish(context.Background(), "k", &Transfer{Amount: 7}, nil))

	obs := &recordingObserver{}
	consumer := newConsumer(b, Config{Topic: "transfers"}).WithDeserializer(de).WithObserver(obs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := receive(t, consumer.Consume(ctx, &sync.WaitGroup{}))
	require.NoError(t, msg.Err())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	var fetch *observability.OperationContext
	for i := range obs.ops {
		if obs.ops[i].Operation == "fetch" {
			fetch = &obs.ops[i]
		}
	}
	require.NotNil(t, fetch)
	assert.Error(t, fetch.Error)
	assert.GreaterOrEqual(t, fetch.Duration, 20*time.Millisecond)
}

func TestConsumeStopsOnShutdown(t *testing.T) {
	b := newBroker()
	consumer := newConsumer(b, Config{Topic: "transfers"})

	wg := &sync.WaitGroup{}
	ch := consumer.Consume(context.Background(), wg)
	require.NoError(t, consumer.GracefulShutdown())
	require.NoError(t, consumer.GracefulShutdown())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	wg.Wait()

	assert.ErrorIs(t, consumer.Publish(context.Background(), "k", nil, nil), ErrClientClosed)
}

func TestConsumeOnProducerClosesChannel(t *testing.T) {
	producer := newProducer(newBroker(), Config{Topic: "transfers"})
	_, ok := <-producer.Consume(context.Background(), &sync.WaitGroup{})
	assert.False(t, ok)
}

func TestConsumeParallel(t *testing.T) {
	b := newBroker()
	ser, de := newSerde(t)

	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser)
	for i := 0; i < 20; i++ {
		require.NoError(t, producer.Publish(context.Background(), "k", &Transfer{Amount: int64(i)}, nil))
	}

	consumer := newConsumer(b, Config{Topic: "transfers", EnableAutoCommit: true}).WithDeserializer(de)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	ch := consumer.ConsumeParallel(ctx, wg, 4)

	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		msg := receive(t, ch)
		require.NoError(t, msg.Err())
		seen[msg.Value().(*Transfer).Amount] = true
		require.NoError(t, msg.CommitMsg())
	}
	assert.Len(t, seen, 20)
	assert.Empty(t, b.committed)

	cancel()
	wg.Wait()
	for range ch {
	}
}

type recordingLogger struct {
	nopLogger
	mu    sync.Mutex
	infos []string
}

func (l *recordingLogger) InfoWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func TestTracePropagationAndTraceLog(t *testing.T) {
	b := newBroker()
	ser, de := newSerde(t)

	tr, err := tracer.NewClient(tracer.Config{ServiceName: "test"}, nil)
	require.NoError(t, err)
	defer func() { _ = tr.Shutdown(context.Background()) }()

	traceLog := &recordingLogger{}
	traceLogger := envelope.NewTraceLogger(envelope.Config{Service: "ledger", AIT: "42"}, traceLog)

	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser).WithTracer(tr)
	consumer := newConsumer(b, Config{Topic: "transfers"}).
		WithDeserializer(de).
		WithTracer(tr).
		WithTraceLogger(traceLogger)

	ctx, parent := tr.StartSpan(context.Background(), "handle-request")
	msg := envelope.NewTraceableMessage(Transfer{Amount: 9})
	msg.CorrelationID = "corr-1"
	require.NoError(t, producer.Publish(ctx, "k", msg, nil))
	parent.End()

	consumeCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := receive(t, consumer.Consume(consumeCtx, &sync.WaitGroup{}))
	require.NoError(t, got.Err())

	assert.Contains(t, got.Header(), "traceparent")
	remote := propagation.TraceContext{}.Extract(context.Background(), propagation.MapCarrier(got.Header()))
	assert.Equal(t, parent.SpanContext().TraceID(), trace.SpanContextFromContext(remote).TraceID())

	traceLog.mu.Lock()
	defer traceLog.mu.Unlock()
	require.Len(t, traceLog.infos, 1)
	assert.Contains(t, traceLog.infos[0], "SERVICE=ledger")
	assert.Contains(t, traceLog.infos[0], "CORRELATION-ID=corr-1")
}

func TestConsumeSpanJoinsProducerTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	b := newBroker()
	ser, de := newSerde(t)
	tr, err := tracer.NewClient(tracer.Config{ServiceName: "test"}, nil)
	require.NoError(t, err)
	defer func() { _ = tr.Shutdown(context.Background()) }()

	ctx, parent := tp.Tracer("test").Start(context.Background(), "upstream")
	producer := newProducer(b, Config{Topic: "transfers"}).WithSerializer(ser).WithTracer(tr)
	require.NoError(t, producer.Publish(ctx, "k", &Transfer{Amount: 1}, nil))
	parent.End()

	consumer := newConsumer(b, Config{Topic: "transfers"}).WithDeserializer(de).WithTracer(tr)
	consumeCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := receive(t, consumer.Consume(consumeCtx, &sync.WaitGroup{}))

	assert.Equal(t, parent.SpanContext().TraceID(), trace.SpanContextFromContext(got.Context()).TraceID())
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "t", CompressionCodec: "brotli"})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "t", SASL: SASLConfig{Enabled: true, Mechanism: "GSSAPI"}})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "t", TLS: TLSConfig{Enabled: true, CACertPath: "/does/not/exist"}})
	assert.Error(t, err)

	producer, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "t", CompressionCodec: "zstd"})
	require.NoError(t, err)
	assert.NotNil(t, producer.writer)
	assert.Nil(t, producer.reader)
	require.NoError(t, producer.GracefulShutdown())

	consumer, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "t", GroupID: "g", IsConsumer: true})
	require.NoError(t, err)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, DefaultBufferSize, consumer.cfg.BufferSize)
	require.NoError(t, consumer.GracefulShutdown())
}

func TestCreateSASLMechanism(t *testing.T) {
	for _, mech := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		m, err := createSASLMechanism(SASLConfig{Mechanism: mech, Username: "u", Password: "p"})
		require.NoError(t, err, mech)
		assert.Equal(t, mech, m.Name())
	}
}

func TestHeadersConversion(t *testing.T) {
	assert.Nil(t, mapToHeaders(nil))
	headers := mapToHeaders(map[string]string{"a": "1"})
	assert.Equal(t, []kafka.Header{{Key: "a", Value: []byte("1")}}, headers)
	assert.Equal(t, map[string]string{"a": "1"}, headersToMap(headers))
}
