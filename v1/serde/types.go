package serde

import (
	"fmt"
	"reflect"
	"sync"
)

// Factory returns a new, zero instance of a registered type. It must return a
// non-nil pointer to a struct.
type Factory func() any

// TypeRegistry maps the record full name written into a schema to the Go type
// the deserializer materializes. Populate it at process start.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]registeredType
}

type registeredType struct {
	factory Factory
	typ     reflect.Type
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]registeredType)}
}

// Register binds name to factory. It panics when factory does not produce a
// pointer to a struct, since that is a programming error.
func (r *TypeRegistry) Register(name string, factory Factory) {
	sample := factory()
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("serde: factory for %s must return a pointer to a struct, got %T", name, sample))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = registeredType{factory: factory, typ: t}
}

// Lookup returns the factory and the produced pointer type for name.
func (r *TypeRegistry) Lookup(name string) (Factory, reflect.Type, bool) {
	if r == nil {
		return nil, nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[name]
	return rt.factory, rt.typ, ok
}

// RegisterType registers T under its canonical name, the record name generated
// schemas carry.
func RegisterType[T any](r *TypeRegistry) {
	RegisterTypeAs[T](r, CanonicalNameOf[T]())
}

// RegisterTypeAs registers T under an explicit record full name. Use it when
// T is written with a hand-written schema whose record name differs from T's
// canonical name.
func RegisterTypeAs[T any](r *TypeRegistry, name string) {
	r.Register(name, func() any { return new(T) })
}
