package model

import (
	"encoding/binary"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/mr-tron/base58"
)

const (
	// SlotLength is the byte length of a serialized Slot.
	SlotLength = 8

	HashLength      = 32
	AddressLength   = 32
	SignatureLength = 64
)

// Slot is the monotonically assigned logical position of a block in the
// ledger. Slots are serialized big-endian so that their byte encoding
// preserves numeric ordering when used as a storage key.
type Slot uint64

func (s Slot) Bytes() ([]byte, error) {
	return s.MustBytes(), nil
}

func (s Slot) MustBytes() []byte {
	bytes := make([]byte, SlotLength)
	binary.BigEndian.PutUint64(bytes, uint64(s))

	return bytes
}

func SlotFromBytes(bytes []byte) (Slot, int, error) {
	if len(bytes) < SlotLength {
		return 0, 0, ierrors.New("not enough bytes to parse slot")
	}

	return Slot(binary.BigEndian.Uint64(bytes)), SlotLength, nil
}

// Hash is a 32-byte SHA-256 digest, the unit of the Proof-of-History chain.
type Hash [HashLength]byte

func (h Hash) Bytes() ([]byte, error) {
	return h[:], nil
}

func HashFromBytes(bytes []byte) (Hash, int, error) {
	var h Hash
	if len(bytes) < HashLength {
		return h, 0, ierrors.New("not enough bytes to parse hash")
	}
	copy(h[:], bytes)

	return h, HashLength, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// Address is a 32-byte account address.
type Address [AddressLength]byte

func (a Address) Bytes() ([]byte, error) {
	return a[:], nil
}

func AddressFromBytes(bytes []byte) (Address, int, error) {
	var a Address
	if len(bytes) < AddressLength {
		return a, 0, ierrors.New("not enough bytes to parse address")
	}
	copy(a[:], bytes)

	return a, AddressLength, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Signature is a 64-byte transaction signature.
type Signature [SignatureLength]byte

func (s Signature) Bytes() ([]byte, error) {
	return s[:], nil
}

func SignatureFromBytes(bytes []byte) (Signature, int, error) {
	var s Signature
	if len(bytes) < SignatureLength {
		return s, 0, ierrors.New("not enough bytes to parse signature")
	}
	copy(s[:], bytes)

	return s, SignatureLength, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}
