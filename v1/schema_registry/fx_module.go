package schema_registry

import (
	"context"

	"github.com/qslv/common-kafka/v1/observability"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and configures the Schema Registry client.
// This module registers the Schema Registry client with the Fx dependency injection framework,
// making it available to other components in the application.
//
// The module provides:
// 1. *Client (concrete type) for direct use
// 2. Registry interface for the serde package and other consumers
// 3. Lifecycle hooks logging start and stop
//
// Usage:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{
//	                URL:      "http://localhost:8081",
//	                Username: "user",
//	                Password: "pass",
//	            }
//	        },
//	    ),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) Registry { return c },
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create a Schema Registry client
type SchemaRegistryParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new Schema Registry client using dependency injection.
// The optional Logger and Observer are attached when present in the container.
//
// Example usage with fx:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    logger.FXModule, // Optional: provides logger
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{
//	                URL:     os.Getenv("SCHEMA_REGISTRY_URL"),
//	                Token:   os.Getenv("SCHEMA_REGISTRY_TOKEN"),
//	                Timeout: 30 * time.Second,
//	            }
//	        },
//	    ),
//	)
func NewClientWithDI(params SchemaRegistryParams) (*Client, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}

	return client, nil
}

// SchemaRegistryLifecycleParams groups the dependencies needed for Schema Registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterSchemaRegistryLifecycle registers the Schema Registry client with the fx lifecycle system.
// The HTTP client holds no resources that need closing; the hooks only log.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Client.logger != nil {
				params.Client.logger.InfoWithContext(ctx, "Schema Registry client initialized", nil, map[string]interface{}{
					"url": params.Client.url,
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if params.Client.logger != nil {
				params.Client.logger.InfoWithContext(ctx, "Schema Registry client shutdown", nil)
			}
			return nil
		},
	})
}
