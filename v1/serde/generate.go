package serde

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// defaultTimeLayout writes time.Time as an ISO-8601 string with nanosecond
// precision unless a field overlay gives another layout.
const defaultTimeLayout = time.RFC3339Nano

// generator derives Avro schema JSON from Go types.
// Named records are defined once and referenced by full name afterwards.
type generator struct {
	binder  *binder
	defined map[string]bool
}

// generateSchema returns the JSON text of the record schema for the struct type t.
func generateSchema(b *binder, t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return "", fmt.Errorf("cannot generate a record schema for %s: not a struct", t)
	}
	canonical := CanonicalName(t)
	if canonical == "" {
		return "", fmt.Errorf("cannot generate a record schema for unnamed type %s", t)
	}

	g := &generator{binder: b, defined: make(map[string]bool)}
	schema, err := g.record(t, canonical)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *generator) record(t reflect.Type, fullName string) (interface{}, error) {
	if g.defined[fullName] {
		return fullName, nil
	}
	g.defined[fullName] = true

	namespace, name := splitName(fullName)
	sf := g.binder.structFields(t)

	fields := make([]interface{}, 0, len(sf.list))
	for _, f := range sf.list {
		typ, err := g.typeOf(f.typ, f.layout, fullName+"_"+f.name)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), f.name, err)
		}
		def := map[string]interface{}{"name": f.name, "type": typ}
		if f.typ.Kind() == reflect.Pointer {
			def["default"] = nil
		}
		fields = append(fields, def)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("type %s has no exported fields", t)
	}

	record := map[string]interface{}{
		"type":   "record",
		"name":   name,
		"fields": fields,
	}
	if namespace != "" {
		record["namespace"] = namespace
	}
	return record, nil
}

// typeOf maps a Go type to its Avro type. anonName names unnamed nested structs.
func (g *generator) typeOf(t reflect.Type, layout, anonName string) (interface{}, error) {
	switch {
	case t == timeType:
		return "string", nil
	case t == bytesType || (t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8):
		return "bytes", nil
	case t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8:
		return "bytes", nil
	}

	switch t.Kind() {
	case reflect.String:
		return "string", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return "int", nil
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return "long", nil
	case reflect.Float32:
		return "float", nil
	case reflect.Float64:
		return "double", nil
	case reflect.Pointer:
		inner, err := g.typeOf(t.Elem(), layout, anonName)
		if err != nil {
			return nil, err
		}
		if union, ok := inner.([]interface{}); ok {
			return union, nil
		}
		return []interface{}{"null", inner}, nil
	case reflect.Slice, reflect.Array:
		items, err := g.typeOf(t.Elem(), layout, anonName+"_item")
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "array", "items": items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not a string", t.Key())
		}
		values, err := g.typeOf(t.Elem(), layout, anonName+"_value")
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "map", "values": values}, nil
	case reflect.Struct:
		name := CanonicalName(t)
		if name == "" {
			name = anonName
		}
		return g.record(t, name)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}
