package serde

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/qslv/common-kafka/v1/schema_registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Customer struct {
	ID       string
	Secret   string
	Birthday time.Time
	Tier     string `avro:"-"`
}

type customerMixin struct {
	ID       string    `avro:"customerId"`
	Secret   string    `avro:"-"`
	Birthday time.Time `avro:"birthday,layout=2006-01-02"`
	Tier     string    `avro:"tier"`
}

func customerOverlays(t *testing.T) (*OverlayRegistry, Config) {
	t.Helper()
	overlays := NewOverlayRegistry()
	name, err := RegisterMixin[customerMixin](overlays)
	require.NoError(t, err)
	assert.Equal(t, "serde.customerMixin", name)
	return overlays, Config{Mixins: map[string]string{"serde.Customer": name}}
}

func TestOverlayShapesGeneratedSchema(t *testing.T) {
	overlays, cfg := customerOverlays(t)
	ser, err := NewSerializer(cfg, schema_registry.NewMemoryRegistry(1), WithOverlays(overlays))
	require.NoError(t, err)

	text, source, err := ser.SchemaFor(Customer{})
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, source)

	schema, err := avro.ParseWithCache(text, "", &avro.SchemaCache{})
	require.NoError(t, err)

	fields := map[string]avro.Type{}
	for _, f := range schema.(*avro.RecordSchema).Fields() {
		fields[f.Name()] = f.Type().Type()
	}
	assert.Equal(t, map[string]avro.Type{
		"customerId": avro.String,
		"birthday":   avro.String,
		"tier":       avro.String,
	}, fields)
}

func TestOverlayAppliesSymmetrically(t *testing.T) {
	ctx := context.Background()
	overlays, cfg := customerOverlays(t)
	registry := schema_registry.NewMemoryRegistry(1)

	ser, err := NewSerializer(cfg, registry, WithOverlays(overlays))
	require.NoError(t, err)

	types := NewTypeRegistry()
	RegisterType[Customer](types)
	de, err := NewDeserializer(cfg, registry, WithOverlays(overlays), WithTypes(types))
	require.NoError(t, err)

	in := Customer{ID: "C-1", Secret: "s3cr3t", Birthday: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), Tier: "gold"}
	data, err := ser.Serialize(ctx, "customers", in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cr3t")
	assert.Contains(t, string(data), "1990-05-17")

	out, err := de.Deserialize(ctx, "customers", data)
	require.NoError(t, err)
	assert.Equal(t, &Customer{ID: "C-1", Birthday: in.Birthday, Tier: "gold"}, out)
}

func TestOverlayRegister(t *testing.T) {
	overlays := NewOverlayRegistry()
	overlays.Register("hide-secret", Overlay{Fields: map[string]FieldOverlay{"Secret": {Ignore: true}}})

	b, err := newBinder(map[string]string{"serde.Customer": "hide-secret"}, overlays)
	require.NoError(t, err)

	sf := b.structFields(reflect.TypeOf(Customer{}))
	names := make([]string, 0, len(sf.list))
	for _, f := range sf.list {
		names = append(names, f.name)
	}
	assert.Equal(t, []string{"ID", "Birthday"}, names)

	_, ok := overlays.Lookup("unknown")
	assert.False(t, ok)
}

func TestParseTag(t *testing.T) {
	assert.Equal(t, tagOptions{ignore: true}, parseTag("-"))
	assert.Equal(t, tagOptions{name: "a"}, parseTag("a"))
	assert.Equal(t, tagOptions{name: "a", layout: "2006"}, parseTag("a,layout=2006"))
	assert.Equal(t, tagOptions{layout: time.RFC3339}, parseTag(",layout="+time.RFC3339))
}

func TestOverlayFromStructRejectsNonStruct(t *testing.T) {
	_, err := OverlayFromStruct(reflect.TypeOf(0))
	require.Error(t, err)
}

func TestFieldLookupFallsBackToCaseInsensitive(t *testing.T) {
	b := newBinderForTest(t)
	sf := b.structFields(reflect.TypeOf(Widget{}))

	f, ok := sf.lookup("NAME")
	require.True(t, ok)
	assert.Equal(t, "name", f.name)

	_, ok = sf.lookup("missing")
	assert.False(t, ok)
}
