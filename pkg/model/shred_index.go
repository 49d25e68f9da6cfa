package model

import (
	"slices"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// ShredIndex tracks which shred indices of one slot have been stored. The
// indices are kept sorted so gaps can be detected with a single scan.
type ShredIndex struct {
	indices []uint64
}

func (s *ShredIndex) Insert(index uint64) {
	i, found := slices.BinarySearch(s.indices, index)
	if found {
		return
	}
	s.indices = slices.Insert(s.indices, i, index)
}

func (s *ShredIndex) Contains(index uint64) bool {
	_, found := slices.BinarySearch(s.indices, index)

	return found
}

func (s *ShredIndex) NumShreds() int {
	return len(s.indices)
}

// ContiguousPrefix returns the number of consecutive indices present
// starting from start. It is used to advance SlotMeta.Consumed.
func (s *ShredIndex) ContiguousPrefix(start uint64) uint64 {
	next := start
	for s.Contains(next) {
		next++
	}

	return next
}

func (s *ShredIndex) ForEach(consumer func(index uint64) bool) {
	for _, index := range s.indices {
		if !consumer(index) {
			return
		}
	}
}

// Index is the per-slot record of stored data and coding shred indices.
type Index struct {
	Slot   Slot
	Data   ShredIndex
	Coding ShredIndex
}

func NewIndex(slot Slot) *Index {
	return &Index{Slot: slot}
}

func (i *Index) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, i.Slot); err != nil {
		return nil, ierrors.Wrap(err, "failed to write slot")
	}
	for _, shredIndex := range []*ShredIndex{&i.Data, &i.Coding} {
		if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint32, func() (int, error) {
			for _, index := range shredIndex.indices {
				if err := stream.Write(byteBuffer, index); err != nil {
					return 0, err
				}
			}

			return len(shredIndex.indices), nil
		}); err != nil {
			return nil, ierrors.Wrap(err, "failed to write shred index")
		}
	}

	return byteBuffer.Bytes()
}

func IndexFromBytes(bytes []byte) (*Index, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var err error
	i := new(Index)

	if i.Slot, err = stream.Read[Slot](byteReader); err != nil {
		return nil, 0, ierrors.Wrap(err, "failed to read slot")
	}
	for _, shredIndex := range []*ShredIndex{&i.Data, &i.Coding} {
		if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint32, func(int) error {
			index, readErr := stream.Read[uint64](byteReader)
			if readErr != nil {
				return readErr
			}
			shredIndex.indices = append(shredIndex.indices, index)

			return nil
		}); err != nil {
			return nil, 0, ierrors.Wrap(err, "failed to read shred index")
		}
	}

	return i, byteReader.BytesRead(), nil
}
