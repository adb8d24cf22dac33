package serde

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// FieldOverlay adjusts how one Go field is projected onto an Avro field.
type FieldOverlay struct {
	// Ignore drops the field from the schema and from encoding and decoding.
	Ignore bool

	// Name replaces the Avro field name.
	Name string

	// Layout sets the time layout a time.Time field is written with, in place
	// of time.RFC3339Nano.
	Layout string
}

// Overlay changes the serialization shape of a type without touching the type.
// Fields is keyed by Go field name.
type Overlay struct {
	Fields map[string]FieldOverlay
}

// OverlayRegistry holds overlays by name. Types are bound to an overlay through
// Config.Mixins (the "mapper.mixins.<Type>" property).
type OverlayRegistry struct {
	mu       sync.RWMutex
	overlays map[string]Overlay
}

// NewOverlayRegistry creates an empty registry.
func NewOverlayRegistry() *OverlayRegistry {
	return &OverlayRegistry{overlays: make(map[string]Overlay)}
}

// Register stores overlay under name, replacing any previous one.
func (r *OverlayRegistry) Register(name string, overlay Overlay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays[name] = overlay
}

// Lookup returns the overlay registered under name.
func (r *OverlayRegistry) Lookup(name string) (Overlay, bool) {
	if r == nil {
		return Overlay{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overlays[name]
	return o, ok
}

// RegisterMixin derives an overlay from the avro tags of the struct type M and
// registers it under M's canonical name. M mirrors the fields of the target
// type it is bound to; only fields carrying an avro tag contribute:
//
//	type accountOpenedMixin struct {
//	    Secret   string    `avro:"-"`
//	    OpenedAt time.Time `avro:"opened_at,layout=2006-01-02"`
//	}
func RegisterMixin[M any](r *OverlayRegistry) (string, error) {
	t := reflect.TypeOf((*M)(nil)).Elem()
	overlay, err := OverlayFromStruct(t)
	if err != nil {
		return "", err
	}
	name := CanonicalName(t)
	r.Register(name, overlay)
	return name, nil
}

// OverlayFromStruct builds an overlay from the avro tags of a struct type.
func OverlayFromStruct(t reflect.Type) (Overlay, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Overlay{}, fmt.Errorf("mixin %s is not a struct", t)
	}

	overlay := Overlay{Fields: make(map[string]FieldOverlay)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("avro")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		overlay.Fields[f.Name] = FieldOverlay{Ignore: opts.ignore, Name: opts.name, Layout: opts.layout}
	}
	return overlay, nil
}

type tagOptions struct {
	name   string
	ignore bool
	layout string
}

// parseTag reads `avro:"name,layout=..."`; `avro:"-"` ignores the field.
func parseTag(tag string) tagOptions {
	if tag == "-" {
		return tagOptions{ignore: true}
	}
	parts := strings.Split(tag, ",")
	opts := tagOptions{name: parts[0]}
	for _, p := range parts[1:] {
		if layout, ok := strings.CutPrefix(p, "layout="); ok {
			opts.layout = layout
		}
	}
	return opts
}

// field is a Go struct field projected onto an Avro field.
type field struct {
	name   string
	index  []int
	typ    reflect.Type
	layout string
}

type structFields struct {
	list   []field
	byName map[string]*field
	byFold map[string]*field
}

// lookup finds the Go field for an Avro field name, exact match first.
func (s *structFields) lookup(name string) (*field, bool) {
	if f, ok := s.byName[name]; ok {
		return f, true
	}
	f, ok := s.byFold[strings.ToLower(name)]
	return f, ok
}

// binder computes the field projection of struct types under the configured overlays.
type binder struct {
	overlays map[string]Overlay // canonical type name -> overlay
	fields   cache[reflect.Type, *structFields]
}

func newBinder(mixins map[string]string, registry *OverlayRegistry) (*binder, error) {
	b := &binder{overlays: make(map[string]Overlay, len(mixins))}
	for typeName, overlayName := range mixins {
		overlay, ok := registry.Lookup(overlayName)
		if !ok {
			return nil, fmt.Errorf("overlay %q bound to %s is not registered", overlayName, typeName)
		}
		b.overlays[typeName] = overlay
	}
	return b, nil
}

func (b *binder) structFields(t reflect.Type) *structFields {
	sf, _ := b.fields.getOrCompute(t, func() (*structFields, error) {
		overlay := b.overlays[CanonicalName(t)]
		sf := &structFields{byName: make(map[string]*field), byFold: make(map[string]*field)}
		b.collect(t, nil, overlay, sf)
		for i := range sf.list {
			f := &sf.list[i]
			sf.byName[f.name] = f
			if _, dup := sf.byFold[strings.ToLower(f.name)]; !dup {
				sf.byFold[strings.ToLower(f.name)] = f
			}
		}
		return sf, nil
	})
	return sf
}

// collect walks exported fields; untagged embedded structs are flattened.
func (b *binder) collect(t reflect.Type, index []int, overlay Overlay, sf *structFields) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup("avro")
		opts := parseTag(tag)

		if f.Anonymous && !tagged && f.Type.Kind() == reflect.Struct && f.Type != timeType {
			if _, bound := overlay.Fields[f.Name]; !bound {
				b.collect(f.Type, appendIndex(index, i), overlay, sf)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		if o, ok := overlay.Fields[f.Name]; ok {
			if o.Ignore {
				continue
			}
			if o.Name != "" {
				opts.name = o.Name
			}
			if o.Layout != "" {
				opts.layout = o.Layout
			}
		} else if opts.ignore {
			continue
		}

		name := opts.name
		if name == "" {
			name = f.Name
		}
		sf.list = append(sf.list, field{
			name:   name,
			index:  appendIndex(index, i),
			typ:    f.Type,
			layout: opts.layout,
		})
	}
}

func appendIndex(index []int, i int) []int {
	out := make([]int, len(index)+1)
	copy(out, index)
	out[len(index)] = i
	return out
}
