package serde

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/schema_registry"
)

// boundType is the Go type a Deserializer materializes.
type boundType struct {
	name    string
	factory Factory
	typ     reflect.Type
}

// Deserializer turns framed Avro messages back into Go values.
//
// The first message that resolves successfully binds the Deserializer to the
// Go type registered for its record name. Messages whose schema records a
// different type fail with ErrCast; mixed-type topics need one Deserializer
// per type. A Deserializer is safe for concurrent use.
type Deserializer struct {
	registry schema_registry.Registry
	types    *TypeRegistry
	conv     *converter

	logger   Logger
	observer observability.Observer

	target  atomic.Pointer[boundType]
	readers cache[int, *codec]
}

// NewDeserializer creates a Deserializer resolving record names in the
// TypeRegistry given with WithTypes.
func NewDeserializer(cfg Config, registry schema_registry.Registry, opts ...Option) (*Deserializer, error) {
	if registry == nil {
		return nil, fmt.Errorf("schema registry is required")
	}
	o := buildOptions(opts)

	b, err := newBinder(cfg.Mixins, o.overlays)
	if err != nil {
		return nil, err
	}
	types := o.types
	if types == nil {
		types = NewTypeRegistry()
	}

	return &Deserializer{
		registry: registry,
		types:    types,
		conv:     &converter{binder: b},
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Deserialize decodes a framed message. It returns the pointer produced by the
// registered factory, e.g. *AccountOpened. Empty input yields nil.
func (d *Deserializer) Deserialize(ctx context.Context, topic string, data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	start := time.Now()
	v, id, err := d.deserialize(ctx, topic, data)
	observe(d.observer, "deserialize", topic, id, start, err, len(data))
	if err != nil {
		d.logger.ErrorWithContext(ctx, "failed to deserialize message", err, map[string]interface{}{
			"topic":     topic,
			"schema_id": id,
		})
		return nil, err
	}
	return v, nil
}

func (d *Deserializer) deserialize(ctx context.Context, topic string, data []byte) (any, int, error) {
	id, body, err := schema_registry.DecodeSchemaID(data)
	if err != nil {
		return nil, 0, &Error{Op: "deserialize", Kind: ErrFormat, Topic: topic, Err: err}
	}

	r, err := d.readers.getOrCompute(id, func() (*codec, error) {
		return d.reader(ctx, id)
	})
	if err != nil {
		return nil, id, asError("deserialize", ErrRegistry, topic, id, "", err)
	}

	target, err := d.bind(ctx, r)
	if err != nil {
		return nil, id, asError("deserialize", ErrTypeResolution, topic, id, r.recordName(), err)
	}

	if name := r.recordName(); name != target.name {
		_, typ, ok := d.types.Lookup(name)
		if !ok || typ != target.typ {
			d.logger.WarnWithContext(ctx, "schema records a type other than the bound one", nil, map[string]interface{}{
				"topic":       topic,
				"schema_id":   id,
				"record_name": name,
				"bound_type":  target.name,
			})
			return nil, id, &Error{
				Op:       "deserialize",
				Kind:     ErrCast,
				Topic:    topic,
				SchemaID: id,
				Type:     name,
				Err:      fmt.Errorf("deserializer is bound to %s", target.name),
			}
		}
	}

	instance := target.factory()
	if err := r.decode(d.conv, body, instance); err != nil {
		return nil, id, &Error{Op: "deserialize", Kind: ErrDecoding, Topic: topic, SchemaID: id, Type: target.name, Err: err}
	}
	return instance, id, nil
}

// reader fetches the schema for id and builds its codec.
func (d *Deserializer) reader(ctx context.Context, id int) (*codec, error) {
	text, err := d.registry.GetSchemaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rs, err := parseSchema(text, SourceRegistry)
	if err != nil {
		return nil, &Error{Op: "deserialize", Kind: ErrDecoding, SchemaID: id, Err: fmt.Errorf("invalid schema: %w", err)}
	}
	c, err := newCodec(rs)
	if err != nil {
		return nil, &Error{Op: "deserialize", Kind: ErrDecoding, SchemaID: id, Err: fmt.Errorf("invalid schema: %w", err)}
	}
	return c, nil
}

// bind returns the bound target type, binding it from r on first use.
// The first successful bind wins; later binds return the winner.
func (d *Deserializer) bind(ctx context.Context, r *codec) (*boundType, error) {
	if target := d.target.Load(); target != nil {
		return target, nil
	}

	name := r.recordName()
	if name == "" {
		return nil, fmt.Errorf("schema %s does not record a type name", r.schema.Type())
	}
	factory, typ, ok := d.types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no type registered for %s", name)
	}

	candidate := &boundType{name: name, factory: factory, typ: typ}
	if d.target.CompareAndSwap(nil, candidate) {
		d.logger.InfoWithContext(ctx, "bound deserializer to type", nil, map[string]interface{}{
			"record_name": name,
			"type":        typ.String(),
		})
		return candidate, nil
	}
	return d.target.Load(), nil
}

// BoundType returns the record name the Deserializer is bound to, if any.
func (d *Deserializer) BoundType() (string, bool) {
	if target := d.target.Load(); target != nil {
		return target.name, true
	}
	return "", false
}

// TypedDeserializer is a Deserializer that returns values of type T.
type TypedDeserializer[T any] struct {
	*Deserializer
}

// NewTypedDeserializer wraps d so results are asserted to T, usually a pointer
// such as *AccountOpened.
func NewTypedDeserializer[T any](d *Deserializer) *TypedDeserializer[T] {
	return &TypedDeserializer[T]{Deserializer: d}
}

// Deserialize decodes data and asserts the result to T. Empty input yields the
// zero T and no error.
func (d *TypedDeserializer[T]) Deserialize(ctx context.Context, topic string, data []byte) (T, error) {
	var zero T
	v, err := d.Deserializer.Deserialize(ctx, topic, data)
	if err != nil || v == nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &Error{Op: "deserialize", Kind: ErrCast, Topic: topic, Err: fmt.Errorf("got %T, want %T", v, zero)}
	}
	return out, nil
}
