package schema_registry

import (
	"time"

	"github.com/qslv/common-kafka/v1/observability"
)

// observeOperation notifies the observer about a registry call if one is configured.
func (c *Client) observeOperation(operation, resource, subResource string, start time.Time, err error) {
	if c == nil || c.observer == nil {
		return
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema_registry",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    time.Since(start),
		Error:       err,
	})
}
