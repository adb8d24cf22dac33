package schema_registry

import (
	"encoding/binary"
	"fmt"
)

// MagicByte is the first byte of every framed message.
const MagicByte byte = 0x0

// HeaderSize is the size of the marker plus the schema id.
const HeaderSize = 5

// EncodeSchemaID frames body in the Confluent wire format
// Format: [magic_byte][schema_id][body]
// - magic_byte: 0x0 (1 byte)
// - schema_id: 4 bytes (big-endian, signed 32-bit)
// - body: copied verbatim, no length prefix
func EncodeSchemaID(schemaID int, body []byte) []byte {
	buf := make([]byte, HeaderSize, HeaderSize+len(body))
	buf[0] = MagicByte
	binary.BigEndian.PutUint32(buf[1:], uint32(int32(schemaID)))
	return append(buf, body...)
}

// DecodeSchemaID decodes a schema ID from the Confluent wire format
// Returns the schema ID and the remaining payload (after the 5-byte header).
// The payload shares memory with data.
func DecodeSchemaID(data []byte) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: %w: empty payload", ErrInvalidWireFormat, ErrPayloadTooShort)
	}

	if data[0] != MagicByte {
		return 0, nil, fmt.Errorf("%w: %w: expected 0x%x, got 0x%x", ErrInvalidWireFormat, ErrInvalidMagicByte, MagicByte, data[0])
	}

	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: %w: expected at least %d bytes, got %d", ErrInvalidWireFormat, ErrPayloadTooShort, HeaderSize, len(data))
	}

	schemaID := int(int32(binary.BigEndian.Uint32(data[1:HeaderSize])))
	return schemaID, data[HeaderSize:], nil
}
