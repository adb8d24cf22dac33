package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a *Tracer and flushes it when the application stops.
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    // other modules...
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Tracer from injected dependencies.
func NewClientWithDI(params TracerParams) (*Tracer, error) {
	return NewClient(params.Config, params.Logger)
}

// TracerLifecycleParams groups the dependencies of RegisterTracerLifecycle.
type TracerLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Tracer    *Tracer
}

// RegisterTracerLifecycle registers an OnStop hook that flushes pending spans
// and shuts the provider down.
func RegisterTracerLifecycle(params TracerLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Tracer.logger.InfoWithContext(ctx, "shutting down tracer", nil)
			return params.Tracer.Shutdown(ctx)
		},
	})
}
