package envelope

import "go.uber.org/fx"

// FXModule provides a *TraceLogger built from the Config in the container.
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Provide(func() envelope.Config {
//	        return envelope.Config{Service: "transfer-service", AIT: "12345"}
//	    }),
//	    envelope.FXModule,
//	)
var FXModule = fx.Module("envelope",
	fx.Provide(NewTraceLoggerWithDI),
)

// TraceLoggerParams groups the dependencies of NewTraceLoggerWithDI.
type TraceLoggerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewTraceLoggerWithDI creates a TraceLogger from injected dependencies.
func NewTraceLoggerWithDI(params TraceLoggerParams) *TraceLogger {
	return NewTraceLogger(params.Config, params.Logger)
}
