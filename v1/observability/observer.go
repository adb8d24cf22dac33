// Package observability defines the hook through which the packages of this module report the
// operations they perform.
//
// Packages such as serde, schema_registry and kafka accept an optional Observer.
// When one is attached, every operation (a registry call, a serialization, a
// publish) is reported once, after it completes, with its duration and outcome.
// The metrics package ships an Observer backed by Prometheus; tests usually
// attach a recording observer.
package observability

import "time"

// Observer receives a notification for every completed operation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "serde" or "kafka".
	Component string

	// Operation is the operation name, e.g. "serialize" or "register_schema".
	Operation string

	// Resource is the primary target, usually a topic or a registry subject.
	Resource string

	// SubResource carries secondary context such as a schema id.
	SubResource string

	// Duration is the wall time spent in the operation.
	Duration time.Duration

	// Error is the failure, or nil on success.
	Error error

	// Size is the payload size in bytes, when meaningful.
	Size int64

	// Metadata holds additional component specific labels.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
