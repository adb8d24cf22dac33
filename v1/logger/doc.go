// Package logger provides structured logging for the common-kafka packages.
//
// The logger wraps Uber's zap with a small, map based API and integrates with
// the fx dependency injection framework.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: Defines the contract for logging operations
//   - LoggerClient struct: Concrete implementation of the Logger interface
//   - NewLoggerClient constructor: Returns *LoggerClient (concrete type)
//   - FX module: Provides both *LoggerClient and Logger interface for dependency injection
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//		ServiceName:   "acct-consumer",
//	})
//
//	log.Info("Schema registered", nil, map[string]interface{}{
//		"subject":   "acct-events-value",
//		"schema_id": 42,
//	})
//
//	// trace_id and span_id are added when ctx carries an active span
//	log.InfoWithContext(ctx, "Message decoded", nil, map[string]interface{}{
//		"topic": "acct-events",
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // Provides *LoggerClient and logger.Logger
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: logger.Debug, ServiceName: "acct-consumer"}
//		}),
//	)
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # Log level (debug, info, warning, error)
//	LOGGER_ENABLE_TRACING=true      # Add trace_id/span_id to *WithContext entries
//	LOGGER_SERVICE_NAME=my-service  # Value of the "service" field
//
// # Thread Safety
//
// All methods on the Logger interface are safe for concurrent use by multiple
// goroutines.
package logger
