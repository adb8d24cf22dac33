package serde

import (
	"io/fs"

	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/schema_registry"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides a Serializer and a Deserializer.
// It needs a serde.Config and a schema_registry.Registry, usually from
// schema_registry.FXModule fed with Config.Registry.
//
// Usage:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    serde.FXModule,
//	    fx.Provide(
//	        func() serde.Config { return cfg },
//	        func(c serde.Config) schema_registry.Config { return c.Registry },
//	        func() *serde.TypeRegistry {
//	            types := serde.NewTypeRegistry()
//	            serde.RegisterType[model.AccountOpened](types)
//	            return types
//	        },
//	        fx.Annotate(func() fs.FS { return schemas }, fx.ResultTags(`name:"serde_resources"`)),
//	    ),
//	)
var FXModule = fx.Module("serde",
	fx.Provide(
		NewSerializerWithDI,
		NewDeserializerWithDI,
	),
)

// SerdeParams groups the dependencies needed to create a Serializer or Deserializer.
type SerdeParams struct {
	fx.In

	Config    Config
	Registry  schema_registry.Registry
	Types     *TypeRegistry          `optional:"true"`
	Overlays  *OverlayRegistry       `optional:"true"`
	Resources fs.FS                  `name:"serde_resources" optional:"true"`
	Logger    Logger                 `optional:"true"`
	Observer  observability.Observer `optional:"true"`
}

func (p SerdeParams) options() []Option {
	opts := []Option{WithTypes(p.Types), WithOverlays(p.Overlays)}
	if p.Resources != nil {
		opts = append(opts, WithResources(p.Resources))
	}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	return opts
}

// NewSerializerWithDI creates a Serializer using dependency injection.
func NewSerializerWithDI(params SerdeParams) (*Serializer, error) {
	return NewSerializer(params.Config, params.Registry, params.options()...)
}

// NewDeserializerWithDI creates a Deserializer using dependency injection.
func NewDeserializerWithDI(params SerdeParams) (*Deserializer, error) {
	return NewDeserializer(params.Config, params.Registry, params.options()...)
}
