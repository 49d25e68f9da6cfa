package model

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// TransactionStatusIndexMeta is one of exactly two rotating records that form
// the double-buffered secondary transaction index. The highest primary index
// slot of the store is the max of both MaxSlot values.
type TransactionStatusIndexMeta struct {
	MaxSlot Slot
	Frozen  bool
}

func (t *TransactionStatusIndexMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, t.MaxSlot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write max slot")
	}
	if err := stream.Write(byteBuffer, t.Frozen); err != nil {
		return nil, ierrors.Wrap(err, "failed to write frozen flag")
	}

	return byteBuffer.Bytes()
}

func TransactionStatusIndexMetaFromBytes(bytes []byte) (*TransactionStatusIndexMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	t := new(TransactionStatusIndexMeta)

	if t.MaxSlot, err = stream.Read[Slot](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read max slot")
	}
	if t.Frozen, err = stream.Read[bool](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read frozen flag")
	}

	return t, byteReader.BytesRead(), nil
}

// AddressSignatureMeta is the value of the address-signatures secondary
// lookup index.
type AddressSignatureMeta struct {
	Writeable bool
}

func (a *AddressSignatureMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, a.Writeable); err != nil {
		return nil, ierrors.Wrap(err, "failed to write writeable flag")
	}

	return byteBuffer.Bytes()
}

func AddressSignatureMetaFromBytes(bytes []byte) (*AddressSignatureMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	a := new(AddressSignatureMeta)

	if a.Writeable, err = stream.Read[bool](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read writeable flag")
	}

	return a, byteReader.BytesRead(), nil
}

// FrozenHashStatus records the bank hash of a frozen slot.
type FrozenHashStatus struct {
	FrozenHash           Hash
	IsDuplicateConfirmed bool
}

func (f *FrozenHashStatus) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, f.FrozenHash); err != nil {
		return nil, ierrors.Wrap(err, "failed to write frozen hash")
	}
	if err := stream.Write(byteBuffer, f.IsDuplicateConfirmed); err != nil {
		return nil, ierrors.Wrap(err, "failed to write duplicate confirmed flag")
	}

	return byteBuffer.Bytes()
}

func FrozenHashStatusFromBytes(bytes []byte) (*FrozenHashStatus, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	f := new(FrozenHashStatus)

	if f.FrozenHash, err = stream.Read[Hash](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read frozen hash")
	}
	if f.IsDuplicateConfirmed, err = stream.Read[bool](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read duplicate confirmed flag")
	}

	return f, byteReader.BytesRead(), nil
}

// OptimisticSlotMeta records when a slot was optimistically confirmed.
type OptimisticSlotMeta struct {
	Hash      Hash
	Timestamp int64
}

func (o *OptimisticSlotMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, o.Hash); err != nil {
		return nil, ierrors.Wrap(err, "failed to write hash")
	}
	if err := stream.Write(byteBuffer, o.Timestamp); err != nil {
		return nil, ierrors.Wrap(err, "failed to write timestamp")
	}

	return byteBuffer.Bytes()
}

func OptimisticSlotMetaFromBytes(bytes []byte) (*OptimisticSlotMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	o := new(OptimisticSlotMeta)

	if o.Hash, err = stream.Read[Hash](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read hash")
	}
	if o.Timestamp, err = stream.Read[int64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read timestamp")
	}

	return o, byteReader.BytesRead(), nil
}
