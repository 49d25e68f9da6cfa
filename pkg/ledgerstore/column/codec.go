package column

import (
	"github.com/iotaledger/hive.go/ds/types"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// Value codecs for columns whose payload is a scalar or mere presence.

func EmptyToBytes(types.Empty) ([]byte, error) {
	return []byte{}, nil
}

func EmptyFromBytes([]byte) (types.Empty, int, error) {
	return types.Void, 0, nil
}

func BoolToBytes(value bool) ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := stream.Write(byteBuffer, value); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

func BoolFromBytes(bytes []byte) (bool, int, error) {
	byteReader := stream.NewByteReader(bytes)

	value, err := stream.Read[bool](byteReader)
	if err != nil {
		return false, 0, err
	}

	return value, byteReader.BytesRead(), nil
}

func Uint64ToBytes(value uint64) ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := stream.Write(byteBuffer, value); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

func Uint64FromBytes(bytes []byte) (uint64, int, error) {
	byteReader := stream.NewByteReader(bytes)

	value, err := stream.Read[uint64](byteReader)
	if err != nil {
		return 0, 0, err
	}

	return value, byteReader.BytesRead(), nil
}

func Int64ToBytes(value int64) ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := stream.Write(byteBuffer, value); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

func Int64FromBytes(bytes []byte) (int64, int, error) {
	byteReader := stream.NewByteReader(bytes)

	value, err := stream.Read[int64](byteReader)
	if err != nil {
		return 0, 0, err
	}

	return value, byteReader.BytesRead(), nil
}

// RawBytesToBytes passes an opaque payload through unchanged.
func RawBytesToBytes(value []byte) ([]byte, error) {
	if value == nil {
		return nil, ierrors.New("raw value must not be nil")
	}

	return value, nil
}

func RawBytesFromBytes(bytes []byte) ([]byte, int, error) {
	return bytes, len(bytes), nil
}
