package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecodeEvent(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{"code": 0, "program": "abc"})
	require.NoError(t, err)

	data, err := EncodeEvent(7, msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, data[:4])

	var got structpb.Struct
	eventType, err := DecodeEvent(data, &got)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), eventType)
	assert.Equal(t, "abc", got.Fields["program"].GetStringValue())
}

func TestDecodeEventShort(t *testing.T) {
	var got structpb.Struct
	_, err := DecodeEvent([]byte{1, 2}, &got)
	assert.ErrorIs(t, err, ErrShortEvent)
}

func TestPartitionHashBytes(t *testing.T) {
	key := make([]byte, 32)
	key[7], key[15], key[19], key[27] = 1, 2, 3, 5

	assert.Equal(t, uint32(0), PartitionHashBytes(key, 1))
	assert.Equal(t, uint32(0), PartitionHashBytes(key[:10], 4))
	assert.Equal(t, uint32(1), PartitionHashBytes(key, 4))
	assert.Equal(t, uint32(5), PartitionHashBytes(key, 8))

	want := (uint32(1)<<24 | uint32(2)<<16 | uint32(3)<<8 | 5) % 3
	assert.Equal(t, want, PartitionHashBytes(key, 3))
}

func TestGetLocalIP(t *testing.T) {
	assert.NotEmpty(t, GetLocalIP())
}
