package schema_registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSchemaID(t *testing.T) {
	framed := EncodeSchemaID(42, []byte{0x02, 0x61})
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2A, 0x02, 0x61}, framed)
}

func TestEncodeSchemaIDEmptyBody(t *testing.T) {
	framed := EncodeSchemaID(1, nil)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x01}, framed)
}

func TestDecodeSchemaIDRoundTrip(t *testing.T) {
	for _, id := range []int{0, 1, 42, 1 << 24, 2147483647, -1} {
		body := []byte("payload")
		got, rest, err := DecodeSchemaID(EncodeSchemaID(id, body))
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.Equal(t, body, rest)
	}
}

func TestDecodeSchemaIDSharesMemory(t *testing.T) {
	framed := EncodeSchemaID(3, []byte{1, 2, 3})
	_, body, err := DecodeSchemaID(framed)
	require.NoError(t, err)

	framed[HeaderSize] = 9
	assert.Equal(t, byte(9), body[0])
}

func TestDecodeSchemaIDErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{name: "empty", data: nil, target: ErrPayloadTooShort},
		{name: "wrong marker", data: []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00}, target: ErrInvalidMagicByte},
		{name: "wrong marker short", data: []byte{0x07}, target: ErrInvalidMagicByte},
		{name: "truncated header", data: []byte{0x00, 0x00, 0x01}, target: ErrPayloadTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeSchemaID(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, IsWireFormatError(err))
		})
	}
}

func TestDecodeSchemaIDHeaderOnly(t *testing.T) {
	id, body, err := DecodeSchemaID([]byte{0x00, 0x00, 0x00, 0x00, 0x05})
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Empty(t, body)
}
