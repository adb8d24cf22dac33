package serde

import (
	"strconv"
	"time"

	"github.com/qslv/common-kafka/v1/observability"
)

// observe notifies observer about a serialize or deserialize call if one is configured.
func observe(observer observability.Observer, operation, topic string, schemaID int, start time.Time, err error, size int) {
	if observer == nil {
		return
	}

	subResource := ""
	if schemaID != 0 {
		subResource = strconv.Itoa(schemaID)
	}

	observer.ObserveOperation(observability.OperationContext{
		Component:   "serde",
		Operation:   operation,
		Resource:    topic,
		SubResource: subResource,
		Duration:    time.Since(start),
		Error:       err,
		Size:        int64(size),
	})
}
