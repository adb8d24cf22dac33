package serde

import (
	"context"
	"fmt"
	"io/fs"
	"reflect"
	"time"

	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/schema_registry"
)

// Option customizes a Serializer or Deserializer.
type Option func(*options)

type options struct {
	resources fs.FS
	overlays  *OverlayRegistry
	types     *TypeRegistry
	logger    Logger
	observer  observability.Observer
}

// WithResources sets the file system configured and sidecar schemas are read from,
// typically an embed.FS.
func WithResources(resources fs.FS) Option {
	return func(o *options) { o.resources = resources }
}

// WithOverlays sets the registry Config.Mixins overlay names are resolved in.
func WithOverlays(overlays *OverlayRegistry) Option {
	return func(o *options) { o.overlays = overlays }
}

// WithTypes sets the registry the deserializer resolves record names in.
func WithTypes(types *TypeRegistry) Option {
	return func(o *options) { o.types = types }
}

// WithLogger attaches a logger.
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver attaches an observer notified after every call.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) { o.observer = observer }
}

func buildOptions(opts []Option) options {
	o := options{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = nopLogger{}
	}
	return o
}

// Serializer turns Go values into framed Avro messages.
//
// The first value written to a topic binds the topic to a schema id for the
// lifetime of the Serializer. A Serializer is safe for concurrent use.
type Serializer struct {
	registry schema_registry.Registry
	resolver *resolver
	conv     *converter
	subject  schema_registry.SubjectNameStrategy
	isKey    bool
	lookup   bool

	logger   Logger
	observer observability.Observer

	typeSchemas cache[reflect.Type, *resolvedSchema]
	topicIDs    cache[string, int]
	schemas     cache[int, *resolvedSchema]
	writers     cache[int, *codec]
}

// NewSerializer creates a Serializer. Configured schemas are loaded and
// overlays are resolved here, so configuration mistakes fail early.
func NewSerializer(cfg Config, registry schema_registry.Registry, opts ...Option) (*Serializer, error) {
	if registry == nil {
		return nil, fmt.Errorf("schema registry is required")
	}
	o := buildOptions(opts)

	subject, err := schema_registry.SubjectNameStrategyByName(cfg.SubjectNameStrategy)
	if err != nil {
		return nil, err
	}
	b, err := newBinder(cfg.Mixins, o.overlays)
	if err != nil {
		return nil, err
	}
	r, err := newResolver(o.resources, cfg.Schemas, b)
	if err != nil {
		return nil, err
	}

	return &Serializer{
		registry: registry,
		resolver: r,
		conv:     &converter{binder: b},
		subject:  subject,
		isKey:    cfg.IsKey,
		lookup:   cfg.LookupOnly,
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Serialize encodes v for topic as [0x0][schema id][avro body].
// A nil v, including a typed nil pointer, yields nil without contacting the registry.
func (s *Serializer) Serialize(ctx context.Context, topic string, v any) ([]byte, error) {
	if isNil(v) {
		return nil, nil
	}

	start := time.Now()
	data, id, err := s.serialize(ctx, topic, v)
	s.observe("serialize", topic, id, start, err, len(data))
	if err != nil {
		s.logger.ErrorWithContext(ctx, "failed to serialize message", err, map[string]interface{}{
			"topic": topic,
			"type":  CanonicalName(reflect.TypeOf(v)),
		})
		return nil, err
	}
	return data, nil
}

func (s *Serializer) serialize(ctx context.Context, topic string, v any) ([]byte, int, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	typeName := CanonicalName(t)

	id, err := s.topicIDs.getOrCompute(topic, func() (int, error) {
		return s.bindTopic(ctx, topic, t)
	})
	if err != nil {
		return nil, 0, asError("serialize", ErrRegistry, topic, 0, typeName, err)
	}

	w, err := s.writers.getOrCompute(id, func() (*codec, error) {
		return s.writer(ctx, id)
	})
	if err != nil {
		return nil, id, asError("serialize", ErrRegistry, topic, id, typeName, err)
	}
	if w.goType != nil && w.goType != t {
		s.logger.WarnWithContext(ctx, "topic is bound to a schema resolved for another type", nil, map[string]interface{}{
			"topic":      topic,
			"schema_id":  id,
			"bound_type": CanonicalName(w.goType),
			"type":       typeName,
		})
	}

	buf := schema_registry.EncodeSchemaID(id, nil)
	data, err := w.encode(s.conv, buf, v)
	if err != nil {
		return nil, id, asError("serialize", ErrEncoding, topic, id, typeName, err)
	}
	return data, id, nil
}

// bindTopic resolves the schema of t and registers or looks it up under the
// topic's subject.
func (s *Serializer) bindTopic(ctx context.Context, topic string, t reflect.Type) (int, error) {
	rs, err := s.typeSchemas.getOrCompute(t, func() (*resolvedSchema, error) {
		return s.resolver.resolve(t)
	})
	if err != nil {
		return 0, &Error{Op: "serialize", Kind: ErrSchemaGeneration, Topic: topic, Type: CanonicalName(t), Err: err}
	}

	subject := s.subject(topic, s.isKey, rs.recordName())
	var id int
	if s.lookup {
		id, err = s.registry.LookupSchemaID(ctx, subject, rs.text)
	} else {
		id, err = s.registry.RegisterSchema(ctx, subject, rs.text)
	}
	if err != nil {
		return 0, fmt.Errorf("subject %s: %w", subject, err)
	}

	s.schemas.store(id, rs)
	s.logger.InfoWithContext(ctx, "bound topic to schema", nil, map[string]interface{}{
		"topic":     topic,
		"subject":   subject,
		"schema_id": id,
		"source":    rs.source.String(),
	})
	return id, nil
}

// writer builds the codec for id from the schema bound under it, falling back
// to the registry copy.
func (s *Serializer) writer(ctx context.Context, id int) (*codec, error) {
	rs, ok := s.schemas.load(id)
	if !ok {
		text, err := s.registry.GetSchemaByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rs, err = parseSchema(text, SourceRegistry); err != nil {
			return nil, &Error{Op: "serialize", Kind: ErrSchemaGeneration, SchemaID: id, Err: err}
		}
	}
	c, err := newCodec(rs)
	if err != nil {
		return nil, &Error{Op: "serialize", Kind: ErrSchemaGeneration, SchemaID: id, Err: err}
	}
	return c, nil
}

// SchemaIDForTopic returns the schema id topic is bound to, if any.
func (s *Serializer) SchemaIDForTopic(topic string) (int, bool) {
	return s.topicIDs.load(topic)
}

// SchemaFor returns the schema text and its source for the type of v without
// contacting the registry. Useful to export generated schemas.
func (s *Serializer) SchemaFor(v any) (string, SchemaSource, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return "", 0, &Error{Op: "resolve", Kind: ErrSchemaGeneration, Err: fmt.Errorf("nil value")}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	rs, err := s.typeSchemas.getOrCompute(t, func() (*resolvedSchema, error) {
		return s.resolver.resolve(t)
	})
	if err != nil {
		return "", 0, &Error{Op: "resolve", Kind: ErrSchemaGeneration, Type: CanonicalName(t), Err: err}
	}
	return rs.text, rs.source, nil
}

func (s *Serializer) observe(operation, topic string, id int, start time.Time, err error, size int) {
	observe(s.observer, operation, topic, id, start, err, size)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
