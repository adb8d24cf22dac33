package envelope

import (
	"context"
	"fmt"
)

// TraceFields are the identifiers written to the trace log for a message.
type TraceFields struct {
	ProducerAit        string
	BusinessTaxonomyID string
	CorrelationID      string
}

// Traceable is implemented by messages that carry trace identifiers.
type Traceable interface {
	TraceFields() TraceFields
}

// TraceLogger writes one TRACE line per handled message, naming the handling
// service and the identifiers carried by the message.
type TraceLogger struct {
	service string
	ait     string
	logger  Logger
}

// NewTraceLogger creates a TraceLogger for the service described by cfg.
// A nil logger disables output.
func NewTraceLogger(cfg Config, logger Logger) *TraceLogger {
	if logger == nil {
		logger = nopLogger{}
	}
	return &TraceLogger{service: cfg.Service, ait: cfg.AIT, logger: logger}
}

// Log writes the trace line for fields.
func (l *TraceLogger) Log(ctx context.Context, fields TraceFields) {
	msg := fmt.Sprintf("TRACE SERVICE=%s, AIT=%s, CLIENT-AIT=%s, BUSINESS-TAXONOMY=%s, CORRELATION-ID=%s",
		l.service, l.ait,
		orNull(fields.ProducerAit),
		orNull(fields.BusinessTaxonomyID),
		orNull(fields.CorrelationID))

	l.logger.InfoWithContext(ctx, msg, nil, map[string]interface{}{
		"service":           l.service,
		"ait":               l.ait,
		"client_ait":        fields.ProducerAit,
		"business_taxonomy": fields.BusinessTaxonomyID,
		"correlation_id":    fields.CorrelationID,
	})
}

// LogValue logs the trace fields of v when v is Traceable and reports
// whether it did.
func (l *TraceLogger) LogValue(ctx context.Context, v any) bool {
	t, ok := v.(Traceable)
	if !ok {
		return false
	}
	l.Log(ctx, t.TraceFields())
	return true
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}
