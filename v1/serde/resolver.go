package serde

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"

	"github.com/hamba/avro/v2"
)

// SchemaSource tells which resolution tier produced a schema.
type SchemaSource int

const (
	// SourceConfigured is a schema configured for the type through Config.Schemas.
	SourceConfigured SchemaSource = iota + 1
	// SourceSidecar is a "<pkg>/<Type>.avsc" resource located by the canonical type name.
	SourceSidecar
	// SourceGenerated is a schema derived from the Go type by reflection.
	SourceGenerated
	// SourceRegistry is a schema fetched from the registry by id.
	SourceRegistry
)

func (s SchemaSource) String() string {
	switch s {
	case SourceConfigured:
		return "configured"
	case SourceSidecar:
		return "sidecar"
	case SourceGenerated:
		return "generated"
	case SourceRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// resolvedSchema is a parsed schema together with the exact text registered for it.
type resolvedSchema struct {
	text   string
	schema avro.Schema
	source SchemaSource
	goType reflect.Type
}

// recordName is the full name of a named top level schema, or "".
func (r *resolvedSchema) recordName() string {
	if named, ok := r.schema.(avro.NamedSchema); ok {
		return named.FullName()
	}
	return ""
}

// resolver picks the schema for a Go type: configured override, then sidecar
// resource, then generation.
type resolver struct {
	resources  fs.FS
	configured map[string]*resolvedSchema
	binder     *binder
}

// newResolver loads every configured schema up front; a configured schema
// that cannot be read or parsed fails construction.
func newResolver(resources fs.FS, schemas map[string]string, b *binder) (*resolver, error) {
	r := &resolver{
		resources:  resources,
		configured: make(map[string]*resolvedSchema, len(schemas)),
		binder:     b,
	}

	for _, typeName := range sortedKeys(schemas) {
		path := schemas[typeName]
		if resources == nil {
			return nil, fmt.Errorf("schema %s configured for %s but no resources are available", path, typeName)
		}
		data, err := fs.ReadFile(resources, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s configured for %s: %w", path, typeName, err)
		}
		rs, err := parseSchema(string(data), SourceConfigured)
		if err != nil {
			return nil, fmt.Errorf("invalid schema %s configured for %s: %w", path, typeName, err)
		}
		r.configured[typeName] = rs
	}
	return r, nil
}

// resolve returns the schema for t. Results are not cached here.
func (r *resolver) resolve(t reflect.Type) (*resolvedSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	canonical := CanonicalName(t)

	if rs, ok := r.configured[canonical]; ok {
		return r.bind(rs, t), nil
	}

	if r.resources != nil && canonical != "" {
		data, err := fs.ReadFile(r.resources, sidecarPath(canonical))
		switch {
		case err == nil:
			rs, err := parseSchema(string(data), SourceSidecar)
			if err != nil {
				return nil, fmt.Errorf("invalid sidecar schema %s: %w", sidecarPath(canonical), err)
			}
			return r.bind(rs, t), nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read sidecar schema %s: %w", sidecarPath(canonical), err)
		}
	}

	text, err := generateSchema(r.binder, t)
	if err != nil {
		return nil, err
	}
	rs, err := parseSchema(text, SourceGenerated)
	if err != nil {
		return nil, fmt.Errorf("generated schema for %s is invalid: %w", canonical, err)
	}
	return r.bind(rs, t), nil
}

func (r *resolver) bind(rs *resolvedSchema, t reflect.Type) *resolvedSchema {
	out := *rs
	out.goType = t
	return &out
}

// parseSchema parses text with a private name cache so unrelated schemas
// sharing record names never collide.
func parseSchema(text string, source SchemaSource) (*resolvedSchema, error) {
	schema, err := avro.ParseWithCache(text, "", &avro.SchemaCache{})
	if err != nil {
		return nil, err
	}
	return &resolvedSchema{text: text, schema: schema, source: source}, nil
}
