// Package serde converts Go values to and from Avro messages framed in the
// Confluent wire format, using a schema registry for schema ids.
//
// A framed message is
//
//	byte 0      : 0x0
//	bytes 1-4   : schema id, big-endian int32
//	bytes 5..   : Avro binary body
//
// Schema Resolution:
//
// The Serializer picks the schema of a Go type from the first tier that has one:
//
//  1. A schema configured for the type's canonical name in Config.Schemas
//     ("mapper.schema.<pkg>.<Type>"), read from the resources file system.
//  2. A sidecar resource at "<pkg>/<Type>.avsc" in the resources file system.
//  3. A schema generated from the struct by reflection.
//
// The canonical name of a type is "<package name>.<Type>", e.g. model.AccountOpened.
// Generated records use it as their full name, which is also what the
// Deserializer looks up in its TypeRegistry.
//
// Generated schemas map Go types as follows:
//
//	string                         string
//	bool                           boolean
//	int8, int16, int32, uint8/16   int
//	int, int64, uint32             long
//	float32, float64               float, double
//	[]byte                         bytes
//	time.Time                      string (RFC 3339, nanoseconds)
//	*T                             ["null", T] with default null
//	[]T, map[string]T              array, map
//	struct                         record
//
// Fields are named by their `avro:"name"` tag or Go name; `avro:"-"` skips a field.
//
// Overlays:
//
// An Overlay renames, hides or reformats fields of a type without touching it.
// Register it in an OverlayRegistry and bind it with Config.Mixins
// ("mapper.mixins.<pkg>.<Type>"). RegisterMixin builds one from a mirror struct:
//
//	type accountOpenedMixin struct {
//	    OpenedAt time.Time `avro:"openedAt,layout=2006-01-02"`
//	}
//
//	overlays := serde.NewOverlayRegistry()
//	name, _ := serde.RegisterMixin[accountOpenedMixin](overlays)
//	cfg.Mixins = map[string]string{"model.AccountOpened": name}
//
// Basic Usage:
//
//	registry, _ := schema_registry.NewClient(schema_registry.Config{URL: "http://localhost:8081"})
//
//	ser, err := serde.NewSerializer(serde.Config{}, registry)
//	data, err := ser.Serialize(ctx, "acct-events", &model.AccountOpened{AccountID: "A-1"})
//
//	types := serde.NewTypeRegistry()
//	serde.RegisterType[model.AccountOpened](types)
//	de, err := serde.NewDeserializer(serde.Config{}, registry, serde.WithTypes(types))
//	v, err := de.Deserialize(ctx, "acct-events", data) // *model.AccountOpened
//
// Binding:
//
// A Serializer binds each topic to the schema id of the first value written to
// it. A Deserializer binds itself to the type of the first message it decodes;
// a later message whose schema records another type fails with ErrCast.
//
// Errors:
//
// Failures are returned as *Error. Its Kind is one of ErrFormat,
// ErrSchemaGeneration, ErrRegistry, ErrTypeResolution, ErrEncoding, ErrDecoding
// or ErrCast:
//
//	if serde.IsFormatError(err) {
//	    // not a registry framed message
//	}
//
// Nothing is retried and failed computations are never cached.
//
// Thread Safety:
//
// Serializer and Deserializer are safe for concurrent use. Concurrent first
// calls may compute a schema or codec more than once; only one result is kept.
package serde
