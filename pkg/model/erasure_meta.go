package model

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// ErasureSetID addresses one forward-error-correction set within a slot.
type ErasureSetID struct {
	Slot        Slot
	FECSetIndex uint64
}

// ErasureConfig describes the data/coding layout of one FEC set.
type ErasureConfig struct {
	NumData   uint32
	NumCoding uint32
}

// ErasureMeta is the per-FEC-set record of coding shred layout parameters.
type ErasureMeta struct {
	// FECSetIndex is the erasure set within the slot this record describes.
	FECSetIndex uint64
	// FirstCodingIndex is the index of the first coding shred of the set.
	FirstCodingIndex uint64
	// FirstReceivedCodingIndex is the index of the first coding shred that
	// was actually received for the set.
	FirstReceivedCodingIndex uint64
	Config                   ErasureConfig
}

func (e *ErasureMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, e.FECSetIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write fec set index")
	}
	if err := stream.Write(byteBuffer, e.FirstCodingIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first coding index")
	}
	if err := stream.Write(byteBuffer, e.FirstReceivedCodingIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first received coding index")
	}
	if err := stream.Write(byteBuffer, e.Config.NumData); err != nil {
		return nil, ierrors.Wrap(err, "failed to write num data")
	}
	if err := stream.Write(byteBuffer, e.Config.NumCoding); err != nil {
		return nil, ierrors.Wrap(err, "failed to write num coding")
	}

	return byteBuffer.Bytes()
}

func ErasureMetaFromBytes(bytes []byte) (*ErasureMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	e := new(ErasureMeta)

	if e.FECSetIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read fec set index")
	}
	if e.FirstCodingIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first coding index")
	}
	if e.FirstReceivedCodingIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first received coding index")
	}
	if e.Config.NumData, err = stream.Read[uint32](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read num data")
	}
	if e.Config.NumCoding, err = stream.Read[uint32](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read num coding")
	}

	return e, byteReader.BytesRead(), nil
}

// MerkleRootMeta records, per FEC set, the merkle root carried by the first
// shred seen for the set and the identity of that shred. Legacy shreds carry
// no merkle root.
type MerkleRootMeta struct {
	HasMerkleRoot           bool
	MerkleRoot              Hash
	FirstReceivedShredIndex uint64
	FirstReceivedShredType  ShredType
}

func (m *MerkleRootMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, m.HasMerkleRoot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write merkle root presence")
	}
	if err := stream.Write(byteBuffer, m.MerkleRoot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write merkle root")
	}
	if err := stream.Write(byteBuffer, m.FirstReceivedShredIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first received shred index")
	}
	if err := stream.Write(byteBuffer, m.FirstReceivedShredType); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first received shred type")
	}

	return byteBuffer.Bytes()
}

func MerkleRootMetaFromBytes(bytes []byte) (*MerkleRootMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	m := new(MerkleRootMeta)

	if m.HasMerkleRoot, err = stream.Read[bool](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read merkle root presence")
	}
	if m.MerkleRoot, err = stream.Read[Hash](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read merkle root")
	}
	if m.FirstReceivedShredIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first received shred index")
	}
	if m.FirstReceivedShredType, err = stream.Read[ShredType](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first received shred type")
	}

	return m, byteReader.BytesRead(), nil
}
