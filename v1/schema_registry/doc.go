// Package schema_registry provides integration with Confluent Schema Registry.
//
// The package is the registry side of the Avro serde in v1/serde: it registers
// and looks up schemas, fetches them back by id and frames payloads in the
// Confluent wire format.
//
// Core Features:
//   - HTTP client for Confluent Schema Registry with basic or bearer auth
//   - Schema registration, lookup and retrieval with append-only caching
//   - Concurrent identical requests collapsed into one network call
//   - Compatibility checking for schema evolution
//   - Confluent wire format encoding/decoding
//   - Subject name strategies (topic, record, topic+record)
//   - MemoryRegistry for tests and local development
//
// Basic Usage:
//
//	import "github.com/qslv/common-kafka/v1/schema_registry"
//
//	registry, err := schema_registry.NewClient(schema_registry.Config{
//	    URL:      "http://localhost:8081",
//	    Username: "user",     // Optional
//	    Password: "password", // Optional
//	    Timeout:  10 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	avroSchema := `{
//	    "type": "record",
//	    "name": "User",
//	    "fields": [
//	        {"name": "name", "type": "string"},
//	        {"name": "age", "type": "int"}
//	    ]
//	}`
//
//	subject := schema_registry.TopicNameStrategy("users", false, "")
//	schemaID, err := registry.RegisterSchema(ctx, subject, avroSchema)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	schema, err := registry.GetSchemaByID(ctx, schemaID)
//
// Wire Format:
//
// Framed messages carry a one byte marker (0x0), the schema id as a big-endian
// int32 and the Avro body:
//
//	framed := schema_registry.EncodeSchemaID(schemaID, body)
//	id, body, err := schema_registry.DecodeSchemaID(framed)
//
// DecodeSchemaID returns a subslice of its input; the body is not copied.
//
// Errors:
//
// Non-2xx answers are returned as *APIError. Confluent error codes 40401, 40402
// and 40403 unwrap to ErrSubjectNotFound, ErrVersionNotFound and ErrSchemaNotFound:
//
//	if schema_registry.IsNotFoundError(err) {
//	    // register instead
//	}
//
// Using with FX:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(func() schema_registry.Config {
//	        return schema_registry.Config{URL: "http://localhost:8081"}
//	    }),
//	)
//
// Thread Safety:
//
// Client and MemoryRegistry are safe for concurrent use.
package schema_registry
