package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/qslv/common-kafka/v1/observability"
)

// fetchRetryDelay is the pause after a failed fetch before the next attempt.
var fetchRetryDelay = 500 * time.Millisecond

// Publish serializes v for the client's topic and writes it with key.
// headers are sent as message headers, together with the trace context of
// ctx when a tracer is attached. A nil v is written as a tombstone.
func (k *KafkaClient) Publish(ctx context.Context, key string, v any, headers map[string]string) error {
	start := time.Now()
	size := 0
	err := k.publish(ctx, key, v, headers, &size)
	k.observe("publish", k.cfg.Topic, start, err, size)
	return err
}

func (k *KafkaClient) publish(ctx context.Context, key string, v any, headers map[string]string, size *int) (err error) {
	if k.isShutdown() {
		return ErrClientClosed
	}
	if k.writer == nil {
		return ErrNotProducer
	}

	k.mu.RLock()
	serializer := k.serializer
	k.mu.RUnlock()
	if serializer == nil {
		return ErrNoSerializer
	}

	ctx, end := k.startSpan(ctx, "kafka.publish", map[string]interface{}{
		"messaging.system":      "kafka",
		"messaging.destination": k.cfg.Topic,
		"messaging.kafka.key":   key,
	})
	defer func() { end(err) }()

	data, err := serializer.Serialize(ctx, k.cfg.Topic, v)
	if err != nil {
		k.logger.ErrorWithContext(ctx, "failed to serialize message", err, map[string]interface{}{
			"topic": k.cfg.Topic,
		})
		return err
	}
	*size = len(data)

	all := make(map[string]string, len(headers)+2)
	for hk, hv := range headers {
		all[hk] = hv
	}
	if k.tracer != nil {
		for hk, hv := range k.tracer.GetCarrier(ctx) {
			all[hk] = hv
		}
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: mapToHeaders(all),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.ErrorWithContext(ctx, "failed to publish message", err, map[string]interface{}{
			"topic": k.cfg.Topic,
			"key":   key,
		})
		return err
	}
	return nil
}

// Consume reads messages until ctx is cancelled or the client is shut down,
// decoding each value on the reading goroutine. The returned channel is
// closed when consumption stops; wg tracks the reading goroutine.
//
// Without auto-commit every message must be committed with CommitMsg.
func (k *KafkaClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan *Message {
	out := make(chan *Message, k.cfg.BufferSize)
	if k.reader == nil {
		k.logger.ErrorWithContext(ctx, "cannot consume", ErrNotConsumer)
		close(out)
		return out
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		k.fetchLoop(ctx, func(raw kafka.Message) bool {
			return k.deliver(ctx, out, k.decode(ctx, raw))
		})
	}()
	return out
}

// ConsumeParallel is Consume with decoding spread over workers goroutines.
// Messages may be delivered out of partition order.
func (k *KafkaClient) ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, workers int) <-chan *Message {
	if workers < 1 {
		workers = 1
	}
	out := make(chan *Message, k.cfg.BufferSize)
	if k.reader == nil {
		k.logger.ErrorWithContext(ctx, "cannot consume", ErrNotConsumer)
		close(out)
		return out
	}

	jobs := make(chan kafka.Message, workers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		k.fetchLoop(ctx, func(raw kafka.Message) bool {
			select {
			case jobs <- raw:
				return true
			case <-ctx.Done():
				return false
			case <-k.shutdownSignal:
				return false
			}
		})
	}()

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer workerWG.Done()
			for raw := range jobs {
				if !k.deliver(ctx, out, k.decode(ctx, raw)) {
					return
				}
			}
		}()
	}

	go func() {
		workerWG.Wait()
		close(out)
	}()
	return out
}

func (k *KafkaClient) fetchLoop(ctx context.Context, emit func(kafka.Message) bool) {
	for {
		start := time.Now()
		raw, err := k.next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || k.isShutdown() {
				k.logger.InfoWithContext(ctx, "consumer is shutting down", err, map[string]interface{}{
					"topic": k.cfg.Topic,
				})
				return
			}
			k.logger.ErrorWithContext(ctx, "failed to fetch message", err, map[string]interface{}{
				"topic": k.cfg.Topic,
			})
			k.observe("fetch", k.cfg.Topic, start, err, 0)

			select {
			case <-ctx.Done():
				return
			case <-k.shutdownSignal:
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if !emit(raw) {
			return
		}
	}
}

func (k *KafkaClient) next(ctx context.Context) (kafka.Message, error) {
	if k.cfg.EnableAutoCommit {
		return k.reader.ReadMessage(ctx)
	}
	return k.reader.FetchMessage(ctx)
}

func (k *KafkaClient) deliver(ctx context.Context, out chan<- *Message, msg *Message) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-k.shutdownSignal:
		return false
	}
}

// decode turns a fetched record into a Message: it restores the producer's
// trace context, decodes the value and writes the trace log line.
func (k *KafkaClient) decode(ctx context.Context, raw kafka.Message) *Message {
	start := time.Now()

	if k.tracer != nil {
		ctx = k.tracer.SetCarrierOnContext(ctx, headersToMap(raw.Headers))
	}
	ctx, end := k.startSpan(ctx, "kafka.consume", map[string]interface{}{
		"messaging.system":               "kafka",
		"messaging.destination":          raw.Topic,
		"messaging.kafka.partition":      raw.Partition,
		"messaging.kafka.message.offset": raw.Offset,
	})

	msg := &Message{ctx: ctx, raw: raw}
	if !k.cfg.EnableAutoCommit {
		msg.commit = k.reader.CommitMessages
	}

	k.mu.RLock()
	deserializer := k.deserializer
	k.mu.RUnlock()

	if deserializer == nil {
		msg.err = ErrNoDeserializer
	} else {
		msg.value, msg.err = deserializer.Deserialize(ctx, raw.Topic, raw.Value)
	}

	if msg.err != nil {
		k.logger.ErrorWithContext(ctx, "failed to decode message", msg.err, map[string]interface{}{
			"topic":     raw.Topic,
			"partition": raw.Partition,
			"offset":    raw.Offset,
		})
	} else if k.traceLogger != nil {
		k.traceLogger.LogValue(ctx, msg.value)
	}

	end(msg.err)
	k.observe("consume", raw.Topic, start, msg.err, len(raw.Value))
	return msg
}

// startSpan starts a span when a tracer is attached. The returned function
// records err on the span and ends it.
func (k *KafkaClient) startSpan(ctx context.Context, name string, attrs map[string]interface{}) (context.Context, func(error)) {
	if k.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := k.tracer.StartSpan(ctx, name)
	k.tracer.SetAttributes(span, attrs)
	return ctx, func(err error) {
		k.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (k *KafkaClient) observe(operation, topic string, start time.Time, err error, size int) {
	if k.observer == nil {
		return
	}
	k.observer.ObserveOperation(observability.OperationContext{
		Component: "kafka",
		Operation: operation,
		Resource:  topic,
		Duration:  time.Since(start),
		Error:     err,
		Size:      int64(size),
	})
}

func (k *KafkaClient) isShutdown() bool {
	select {
	case <-k.shutdownSignal:
		return true
	default:
		return false
	}
}

// GracefulShutdown stops running consumers and closes the writer or reader.
// Pending async writes are flushed by the writer on close. It is safe to call
// more than once.
func (k *KafkaClient) GracefulShutdown() error {
	var errs []error
	k.closeShutdownOnce.Do(func() {
		close(k.shutdownSignal)

		k.mu.Lock()
		defer k.mu.Unlock()
		if k.writer != nil {
			if err := k.writer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if k.reader != nil {
			if err := k.reader.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		k.logger.InfoWithContext(context.Background(), "kafka client shut down", nil, map[string]interface{}{
			"topic": k.cfg.Topic,
		})
	})
	return errors.Join(errs...)
}
