package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Message is a consumed record together with its decoded value.
type Message struct {
	ctx    context.Context
	raw    kafka.Message
	value  any
	err    error
	commit func(ctx context.Context, msgs ...kafka.Message) error
}

// Context returns the context of the message. It carries the producer's
// trace context when one was propagated in the headers.
func (m *Message) Context() context.Context {
	return m.ctx
}

// Value returns the decoded value, usually a pointer produced by the
// deserializer's type registry. It is nil when decoding failed.
func (m *Message) Value() any {
	return m.value
}

// Err returns the decoding error of the message, if any. Undecodable
// messages are still delivered so the caller decides whether to commit them.
func (m *Message) Err() error {
	return m.err
}

// Body returns the raw framed value.
func (m *Message) Body() []byte {
	return m.raw.Value
}

// Key returns the message key.
func (m *Message) Key() string {
	return string(m.raw.Key)
}

// Topic returns the topic the message was read from.
func (m *Message) Topic() string {
	return m.raw.Topic
}

// Partition returns the partition the message was read from.
func (m *Message) Partition() int {
	return m.raw.Partition
}

// Offset returns the offset of the message.
func (m *Message) Offset() int64 {
	return m.raw.Offset
}

// Header returns the message headers as a map. Later duplicates win.
func (m *Message) Header() map[string]string {
	return headersToMap(m.raw.Headers)
}

// CommitMsg commits the offset of the message. It is a no-op when
// auto-commit is enabled.
func (m *Message) CommitMsg() error {
	if m.commit == nil {
		return nil
	}
	return m.commit(context.Background(), m.raw)
}

func headersToMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func mapToHeaders(m map[string]string) []kafka.Header {
	if len(m) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(m))
	for k, v := range m {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
