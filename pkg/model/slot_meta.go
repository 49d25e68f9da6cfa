package model

import (
	"math"
	"slices"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

const (
	// UnknownShredIndex marks a SlotMeta whose terminal shred has not been
	// received yet. Matches the on-disk sentinel of the legacy encoding.
	UnknownShredIndex = math.MaxUint64

	// UnknownSlot marks the parent of the head of a detached chain of slots.
	UnknownSlot Slot = math.MaxUint64
)

// SlotMeta is the per-slot bookkeeping record of the shred columns.
type SlotMeta struct {
	// Slot is the slot this record describes.
	Slot Slot
	// Consumed is the number of consecutive shreds received starting from
	// index 0. While the slot is incomplete it doubles as the index of the
	// first missing shred.
	Consumed uint64
	// Received is the index plus one of the highest shred received.
	Received uint64
	// FirstShredTimestamp is the wall-clock time (unix milliseconds) the
	// first shred for this slot was added.
	FirstShredTimestamp int64
	// LastIndex is the index of the shred flagged as last in the slot, or
	// UnknownShredIndex until such a shred is received.
	LastIndex uint64
	// ParentSlot is the slot this one derives from, or UnknownSlot for the
	// head of a detached chain.
	ParentSlot Slot
	// NextSlots lists the slots holding blocks that derive from this one.
	NextSlots []Slot
	// CompletedDataIndexes holds the sorted shred indices that were flagged
	// data-complete.
	CompletedDataIndexes []uint32
}

func NewSlotMeta(slot Slot, parentSlot Slot) *SlotMeta {
	return &SlotMeta{
		Slot:       slot,
		LastIndex:  UnknownShredIndex,
		ParentSlot: parentSlot,
	}
}

// IsFull returns true once every data shred of the slot has been received.
func (m *SlotMeta) IsFull() bool {
	return m.LastIndex != UnknownShredIndex && m.Consumed == m.LastIndex+1
}

// IsOrphan returns true while the parent of this slot is unknown.
func (m *SlotMeta) IsOrphan() bool {
	return m.ParentSlot == UnknownSlot
}

// IsConnected reports whether any shred was received at all.
func (m *SlotMeta) IsConnected() bool {
	return m.Received > 0
}

// InsertCompletedDataIndex records a shred index flagged data-complete,
// keeping the set sorted and free of duplicates.
func (m *SlotMeta) InsertCompletedDataIndex(index uint32) {
	i, found := slices.BinarySearch(m.CompletedDataIndexes, index)
	if found {
		return
	}
	m.CompletedDataIndexes = slices.Insert(m.CompletedDataIndexes, i, index)
}

// InsertNextSlot records a child slot, keeping the set sorted and free of
// duplicates.
func (m *SlotMeta) InsertNextSlot(slot Slot) {
	i, found := slices.BinarySearch(m.NextSlots, slot)
	if found {
		return
	}
	m.NextSlots = slices.Insert(m.NextSlots, i, slot)
}

func (m *SlotMeta) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, m.Slot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write slot")
	}
	if err := stream.Write(byteBuffer, m.Consumed); err != nil {
		return nil, ierrors.Wrap(err, "failed to write consumed")
	}
	if err := stream.Write(byteBuffer, m.Received); err != nil {
		return nil, ierrors.Wrap(err, "failed to write received")
	}
	if err := stream.Write(byteBuffer, m.FirstShredTimestamp); err != nil {
		return nil, ierrors.Wrap(err, "failed to write first shred timestamp")
	}
	if err := stream.Write(byteBuffer, m.LastIndex); err != nil {
		return nil, ierrors.Wrap(err, "failed to write last index")
	}
	if err := stream.Write(byteBuffer, m.ParentSlot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write parent slot")
	}
	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint32, func() (int, error) {
		for _, slot := range m.NextSlots {
			if err := stream.Write(byteBuffer, slot); err != nil {
				return 0, err
			}
		}

		return len(m.NextSlots), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write next slots")
	}
	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint32, func() (int, error) {
		for _, index := range m.CompletedDataIndexes {
			if err := stream.Write(byteBuffer, index); err != nil {
				return 0, err
			}
		}

		return len(m.CompletedDataIndexes), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write completed data indexes")
	}

	return byteBuffer.Bytes()
}

func SlotMetaFromBytes(bytes []byte) (*SlotMeta, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	m := new(SlotMeta)

	if m.Slot, err = stream.Read[Slot](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read slot")
	}
	if m.Consumed, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read consumed")
	}
	if m.Received, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read received")
	}
	if m.FirstShredTimestamp, err = stream.Read[int64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read first shred timestamp")
	}
	if m.LastIndex, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read last index")
	}
	if m.ParentSlot, err = stream.Read[Slot](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read parent slot")
	}
	if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint32, func(int) error {
		slot, readErr := stream.Read[Slot](byteReader)
		if readErr != nil {
			return readErr
		}
		m.NextSlots = append(m.NextSlots, slot)

		return nil
	}); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read next slots")
	}
	if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint32, func(int) error {
		index, readErr := stream.Read[uint32](byteReader)
		if readErr != nil {
			return readErr
		}
		m.CompletedDataIndexes = append(m.CompletedDataIndexes, index)

		return nil
	}); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read completed data indexes")
	}

	return m, byteReader.BytesRead(), nil
}
