package envelope

import "context"

// Config names the service that handles traced messages.
type Config struct {
	// Service is the logical name of the consuming service.
	Service string `yaml:"service" envconfig:"TRACE_SERVICE"`

	// AIT is the application inventory tag of the consuming service.
	AIT string `yaml:"ait" envconfig:"TRACE_AIT"`
}

// Logger is an interface that matches the common-kafka/v1/logger.Logger interface.
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{}) {}
