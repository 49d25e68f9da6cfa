// Package column provides typed access to the column families of the ledger
// database. A Store pairs one column family with codecs for its index and
// value types, so callers work with domain objects instead of raw keys.
package column

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
)

// Store is a typed view on one column family.
type Store[I any, V any] struct {
	column       *database.Column
	indexToBytes kvstore.ObjectToBytes[I]
	bytesToIndex kvstore.BytesToObject[I]
	valueToBytes kvstore.ObjectToBytes[V]
	bytesToValue kvstore.BytesToObject[V]
}

func NewStore[I any, V any](
	column *database.Column,
	indexToBytes kvstore.ObjectToBytes[I],
	bytesToIndex kvstore.BytesToObject[I],
	valueToBytes kvstore.ObjectToBytes[V],
	bytesToValue kvstore.BytesToObject[V],
) *Store[I, V] {
	return &Store[I, V]{
		column:       column,
		indexToBytes: indexToBytes,
		bytesToIndex: bytesToIndex,
		valueToBytes: valueToBytes,
		bytesToValue: bytesToValue,
	}
}

// Name returns the underlying column family name.
func (s *Store[I, V]) Name() string {
	return s.column.Name()
}

// Load returns the value stored under index. A missing index is not an
// error; it is reported through the exists flag.
func (s *Store[I, V]) Load(index I) (value V, exists bool, err error) {
	var zero V

	key, err := s.indexToBytes(index)
	if err != nil {
		return zero, false, ierrors.Wrapf(err, "failed to serialize index for %s", s.Name())
	}

	data, err := s.column.Get(key)
	if err != nil {
		return zero, false, ierrors.Wrapf(err, "failed to load from %s", s.Name())
	}
	if data == nil {
		return zero, false, nil
	}

	value, _, err = s.bytesToValue(data)
	if err != nil {
		return zero, false, ierrors.Wrapf(err, "failed to deserialize value from %s", s.Name())
	}

	return value, true, nil
}

// Has reports whether index exists without deserializing its value.
func (s *Store[I, V]) Has(index I) (bool, error) {
	key, err := s.indexToBytes(index)
	if err != nil {
		return false, ierrors.Wrapf(err, "failed to serialize index for %s", s.Name())
	}

	data, err := s.column.Get(key)
	if err != nil {
		return false, ierrors.Wrapf(err, "failed to read from %s", s.Name())
	}

	return data != nil, nil
}

// Store persists value under index.
func (s *Store[I, V]) Store(index I, value V) error {
	key, err := s.indexToBytes(index)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize index for %s", s.Name())
	}

	data, err := s.valueToBytes(value)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize value for %s", s.Name())
	}

	return s.column.Put(key, data)
}

// Delete removes index if it exists.
func (s *Store[I, V]) Delete(index I) error {
	key, err := s.indexToBytes(index)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize index for %s", s.Name())
	}

	return s.column.Delete(key)
}

// DeleteRange removes all entries with start <= index < end in key order.
func (s *Store[I, V]) DeleteRange(start I, end I) error {
	startKey, err := s.indexToBytes(start)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize range start for %s", s.Name())
	}

	endKey, err := s.indexToBytes(end)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize range end for %s", s.Name())
	}

	return s.column.DeleteRange(startKey, endKey)
}

// Iterate walks the whole column in the given direction.
func (s *Store[I, V]) Iterate(direction database.IterDirection, consumer func(index I, value V) bool) error {
	mode := database.IterateFromStart()
	if direction == database.IterReverse {
		mode = database.IterateFromEnd()
	}

	return s.iterate(mode, consumer)
}

// IterateFrom walks the column starting at index (or the nearest entry in
// the iteration direction).
func (s *Store[I, V]) IterateFrom(index I, direction database.IterDirection, consumer func(index I, value V) bool) error {
	key, err := s.indexToBytes(index)
	if err != nil {
		return ierrors.Wrapf(err, "failed to serialize index for %s", s.Name())
	}

	return s.iterate(database.IterateFrom(key, direction), consumer)
}

func (s *Store[I, V]) iterate(mode database.IteratorMode, consumer func(index I, value V) bool) error {
	var innerErr error
	if err := s.column.Iterate(mode, func(key, data []byte) bool {
		index, _, err := s.bytesToIndex(key)
		if err != nil {
			innerErr = ierrors.Wrapf(err, "failed to deserialize index from %s", s.Name())

			return false
		}

		value, _, err := s.bytesToValue(data)
		if err != nil {
			innerErr = ierrors.Wrapf(err, "failed to deserialize value from %s", s.Name())

			return false
		}

		return consumer(index, value)
	}); err != nil {
		return ierrors.Wrapf(err, "failed to iterate %s", s.Name())
	}

	return innerErr
}

// First returns the entry with the smallest index.
func (s *Store[I, V]) First() (index I, value V, exists bool, err error) {
	return s.edge(database.IterForward)
}

// Last returns the entry with the largest index.
func (s *Store[I, V]) Last() (index I, value V, exists bool, err error) {
	return s.edge(database.IterReverse)
}

func (s *Store[I, V]) edge(direction database.IterDirection) (index I, value V, exists bool, err error) {
	err = s.Iterate(direction, func(i I, v V) bool {
		index, value, exists = i, v, true

		return false
	})

	return index, value, exists, err
}
