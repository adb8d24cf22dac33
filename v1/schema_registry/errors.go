package schema_registry

import (
	"errors"
	"fmt"
)

// Common schema registry errors
var (
	// ErrSubjectNotFound is returned when the subject does not exist (error code 40401).
	ErrSubjectNotFound = errors.New("schema registry: subject not found")

	// ErrVersionNotFound is returned when the subject version does not exist (error code 40402).
	ErrVersionNotFound = errors.New("schema registry: version not found")

	// ErrSchemaNotFound is returned when the schema is not known to the registry (error code 40403).
	ErrSchemaNotFound = errors.New("schema registry: schema not found")

	// ErrInvalidWireFormat is returned when a payload is not a framed registry message.
	ErrInvalidWireFormat = errors.New("schema registry: invalid wire format")

	// ErrInvalidMagicByte is returned when the first byte is not MagicByte.
	ErrInvalidMagicByte = errors.New("invalid magic byte")

	// ErrPayloadTooShort is returned when the payload cannot hold the 5 byte header.
	ErrPayloadTooShort = errors.New("payload too short")
)

// Confluent error codes that map onto the sentinel errors above.
const (
	errorCodeSubjectNotFound = 40401
	errorCodeVersionNotFound = 40402
	errorCodeSchemaNotFound  = 40403
)

// APIError is a non-2xx answer of the registry REST API.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  int    `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != 0 {
		return fmt.Sprintf("schema registry returned status %d (error code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known registry error codes to sentinel errors so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.ErrorCode {
	case errorCodeSubjectNotFound:
		return ErrSubjectNotFound
	case errorCodeVersionNotFound:
		return ErrVersionNotFound
	case errorCodeSchemaNotFound:
		return ErrSchemaNotFound
	}
	return nil
}

// IsNotFoundError checks if the error reports a missing subject, version or schema.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrSchemaNotFound)
}

// IsWireFormatError checks if the error is a framing error.
func IsWireFormatError(err error) bool {
	return errors.Is(err, ErrInvalidWireFormat)
}
