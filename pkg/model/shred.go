package model

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
	"golang.org/x/crypto/blake2b"
)

// MaxDataShredsPerSlot bounds the data shred index space of a single slot.
const MaxDataShredsPerSlot = 32_768

// ShredType distinguishes data shreds from erasure coding shreds. The values
// are part of the wire format.
type ShredType byte

const (
	ShredTypeData ShredType = 0b1010_0101
	ShredTypeCode ShredType = 0b0101_1010
)

// ShredFlags carry per-shred markers set by the block producer.
type ShredFlags uint8

const (
	// ShredFlagDataComplete marks the last shred of a data batch.
	ShredFlagDataComplete ShredFlags = 0b0100_0000
	// ShredFlagLastInSlot marks the terminal shred of a slot. It implies
	// ShredFlagDataComplete.
	ShredFlagLastInSlot ShredFlags = 0b1100_0000
)

// ShredID addresses a single shred within a slot.
type ShredID struct {
	Slot  Slot
	Index uint64
}

// Shred is one erasure-coded fragment of a serialized block. Erasure
// recovery itself happens outside the store; the store only persists shreds
// and tracks their bookkeeping.
type Shred struct {
	Slot  Slot
	Index uint64
	Type  ShredType
	Flags ShredFlags
	// ParentOffset is the distance to the parent slot (data shreds only).
	ParentOffset uint32
	// FECSetIndex identifies the erasure set this shred belongs to.
	FECSetIndex uint64
	// FirstCodingIndex and the Num* fields describe the erasure layout
	// (coding shreds only).
	FirstCodingIndex uint64
	NumData          uint32
	NumCoding        uint32
	// HasMerkleRoot and MerkleRoot carry the chained merkle root for
	// merkle-variant shreds.
	HasMerkleRoot bool
	MerkleRoot    Hash
	Payload       []byte
}

func (s *Shred) ID() ShredID {
	return ShredID{Slot: s.Slot, Index: s.Index}
}

func (s *Shred) IsData() bool {
	return s.Type == ShredTypeData
}

func (s *Shred) IsCode() bool {
	return s.Type == ShredTypeCode
}

func (s *Shred) LastInSlot() bool {
	return s.IsData() && s.Flags&ShredFlagLastInSlot == ShredFlagLastInSlot
}

func (s *Shred) DataComplete() bool {
	return s.IsData() && s.Flags&ShredFlagDataComplete == ShredFlagDataComplete
}

// ParentSlot derives the parent from the parent offset. Slot 0 chains to
// itself; a zero offset on any other slot marks a detached head.
func (s *Shred) ParentSlot() Slot {
	if s.Slot == 0 {
		return 0
	}
	if s.ParentOffset == 0 || uint64(s.ParentOffset) > uint64(s.Slot) {
		return UnknownSlot
	}

	return s.Slot - Slot(s.ParentOffset)
}

// PayloadDigest is used to detect conflicting shreds stored at the same
// position.
func (s *Shred) PayloadDigest() Hash {
	return blake2b.Sum256(s.Payload)
}

func (s *Shred) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, s.Slot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write slot")
	}
	if err := stream.Write(byteBuffer, s.Index); err != nil {
		return nil, ierrors.Wrap(err, "failed to write index")
	}
	if err := stream.Write(byteBuffer, s.Type); err != nil {
		return nil, ierrors.Wrap(err, "failed to write type")
	}
	if err := stream.Write(byteBuffer, s.Flags); err != nil {
		return nil, ierrors.Wrap(err, "failed to write flags")
	}
	if err := stream.Write(byteBuffer, s.ParentOffset); err != nil {
		return nil, ierrors.Wrap(err, "failed to write parent offset")
	}
	if err := stream.Write(byteBuffer, s.FECSetIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write fec set index")
	}
	if err := stream.Write(byteBuffer, s.FirstCodingIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first coding index")
	}
	if err := stream.Write(byteBuffer, s.NumData); err != nil {
		return nil, ierrors.Wrap(err, "failed to write num data")
	}
	if err := stream.Write(byteBuffer, s.NumCoding); err != nil {
		return nil, ierrors.Wrap(err, "failed to write num coding")
	}
	if err := stream.Write(byteBuffer, s.HasMerkleRoot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write merkle root presence")
	}
	if err := stream.Write(byteBuffer, s.MerkleRoot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write merkle root")
	}
	if err := stream.WriteBytesWithSize(byteBuffer, s.Payload, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
		return nil, ierrors.Wrap(err, "failed to write payload")
	}

	return byteBuffer.Bytes()
}

func ShredFromBytes(bytes []byte) (*Shred, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	s := new(Shred)

	if s.Slot, err = stream.Read[Slot](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read slot")
	}
	if s.Index, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read index")
	}
	if s.Type, err = stream.Read[ShredType](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read type")
	}
	if s.Flags, err = stream.Read[ShredFlags](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read flags")
	}
	if s.ParentOffset, err = stream.Read[uint32](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read parent offset")
	}
	if s.FECSetIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read fec set index")
	}
	if s.FirstCodingIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first coding index")
	}
	if s.NumData, err = stream.Read[uint32](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read num data")
	}
	if s.NumCoding, err = stream.Read[uint32](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read num coding")
	}
	if s.HasMerkleRoot, err = stream.Read[bool](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read merkle root presence")
	}
	if s.MerkleRoot, err = stream.Read[Hash](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read merkle root")
	}
	if s.Payload, err = stream.ReadBytesWithSize(byteReader, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read payload")
	}

	return s, byteReader.BytesRead(), nil
}
