package serde

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by Serialize and Deserialize is an *Error
// whose Kind is one of these, so callers can branch with errors.Is.
var (
	// ErrFormat is returned when a payload is not a framed registry message.
	ErrFormat = errors.New("format error")

	// ErrSchemaGeneration is returned when a Go type cannot be mapped to an Avro schema,
	// or a configured or sidecar schema cannot be loaded.
	ErrSchemaGeneration = errors.New("schema generation error")

	// ErrRegistry is returned when a schema registry call fails.
	ErrRegistry = errors.New("registry error")

	// ErrTypeResolution is returned when the type recorded in a schema is not registered.
	ErrTypeResolution = errors.New("type resolution error")

	// ErrEncoding is returned when a value does not fit the writer schema.
	ErrEncoding = errors.New("encoding error")

	// ErrDecoding is returned when a body does not fit the reader schema or the target type.
	ErrDecoding = errors.New("decoding error")

	// ErrCast is returned when a decoded value is not of the type bound to the deserializer.
	ErrCast = errors.New("cast error")
)

// Error describes a failed serialize or deserialize call.
type Error struct {
	// Op is "serialize" or "deserialize".
	Op string

	// Kind is one of the sentinel errors of this package.
	Kind error

	// Topic is the topic of the failed call, if known.
	Topic string

	// SchemaID is the schema id involved, or 0 when none was resolved yet.
	SchemaID int

	// Type is the canonical name of the Go type involved, if known.
	Type string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("serde: ")
	b.WriteString(e.Op)
	if e.Topic != "" {
		fmt.Fprintf(&b, " topic=%s", e.Topic)
	}
	if e.SchemaID != 0 {
		fmt.Fprintf(&b, " schema_id=%d", e.SchemaID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " type=%s", e.Type)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// asError returns err as an *Error of the given kind, filling in missing context.
// An err that already is an *Error keeps its own kind.
func asError(op string, kind error, topic string, schemaID int, typeName string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		if se.Topic == "" {
			se.Topic = topic
		}
		if se.SchemaID == 0 {
			se.SchemaID = schemaID
		}
		if se.Type == "" {
			se.Type = typeName
		}
		return se
	}
	return &Error{Op: op, Kind: kind, Topic: topic, SchemaID: schemaID, Type: typeName, Err: err}
}

// IsFormatError checks if the error is a framing error.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsSchemaGenerationError checks if a schema could not be resolved for a type.
func IsSchemaGenerationError(err error) bool {
	return errors.Is(err, ErrSchemaGeneration)
}

// IsRegistryError checks if the error came from the schema registry.
func IsRegistryError(err error) bool {
	return errors.Is(err, ErrRegistry)
}

// IsTypeResolutionError checks if the schema's recorded type could not be resolved.
func IsTypeResolutionError(err error) bool {
	return errors.Is(err, ErrTypeResolution)
}

// IsEncodingError checks if a value did not fit its writer schema.
func IsEncodingError(err error) bool {
	return errors.Is(err, ErrEncoding)
}

// IsDecodingError checks if a body did not fit its reader schema.
func IsDecodingError(err error) bool {
	return errors.Is(err, ErrDecoding)
}

// IsCastError checks if a decoded value did not match the bound target type.
func IsCastError(err error) bool {
	return errors.Is(err, ErrCast)
}
